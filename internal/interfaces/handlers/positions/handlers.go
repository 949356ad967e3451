package positions

import (
	settlesvc "coinvest-backend/internal/application/settlement"
	"coinvest-backend/internal/middleware"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes buy, redeem and the position list.
type Handlers struct {
	Service *settlesvc.Service
}

type buyRequest struct {
	AssetID   string `json:"asset_id"`
	PlanIndex int    `json:"plan_index"`
}

type redeemRequest struct {
	PositionID string `json:"position_id"`
}

// Buy purchases a position at the asset's catalog price on the chosen plan.
func (h *Handlers) Buy(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in buyRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	assetID, err := uuid.Parse(in.AssetID)
	if err != nil {
		return response.Error(c, "asset_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	position, err := h.Service.Buy(c.Context(), userID, assetID, in.PlanIndex)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Position opened", position, nil)
}

// Redeem closes the caller's active position and credits principal plus any
// uncredited yield.
func (h *Handlers) Redeem(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in redeemRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	positionID, err := uuid.Parse(in.PositionID)
	if err != nil {
		return response.Error(c, "position_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Redeem(c.Context(), userID, positionID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Position redeemed", result, nil)
}

// List returns the caller's positions with derived progress fields.
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	views, err := h.Service.ListPositions(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Positions", views, fiber.Map{"count": len(views)})
}
