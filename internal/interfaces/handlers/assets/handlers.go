package assets

import (
	catalogsvc "coinvest-backend/internal/application/catalog"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes the asset catalog.
type Handlers struct {
	Service *catalogsvc.Service
}

// List returns the active catalog.
func (h *Handlers) List(c *fiber.Ctx) error {
	assets, err := h.Service.ListAssets(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Assets", assets, fiber.Map{"count": len(assets)})
}

// Get returns one asset by id.
func (h *Handlers) Get(c *fiber.Ctx) error {
	assetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "asset id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.GetAsset(c.Context(), assetID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Asset", asset, nil)
}

// Create adds a catalog item (admin).
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in catalogsvc.CreateAssetInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	asset, err := h.Service.CreateAsset(c.Context(), in)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Asset created", asset, nil)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive toggles an asset's availability (admin).
func (h *Handlers) SetActive(c *fiber.Ctx) error {
	assetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "asset id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	var in setActiveRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SetActive(c.Context(), assetID, in.Active); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Asset updated", fiber.Map{"asset_id": assetID, "active": in.Active}, nil)
}
