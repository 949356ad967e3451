package wallet

import (
	settlesvc "coinvest-backend/internal/application/settlement"
	"coinvest-backend/internal/middleware"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes deposit, withdraw and the ledger view.
type Handlers struct {
	Service *settlesvc.Service
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

// Deposit credits the caller's wallet; referral bonus cascades to the direct
// referrer when present.
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in amountRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Deposit(c.Context(), userID, in.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Deposit credited", result, nil)
}

// Withdraw debits the caller's wallet.
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in amountRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Withdraw(c.Context(), userID, in.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Withdrawal complete", result, nil)
}

// Ledger returns the caller's ledger entries, optionally filtered by kind.
func (h *Handlers) Ledger(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	entries, err := h.Service.ListLedger(c.Context(), userID, c.Query("kind"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Ledger", entries, fiber.Map{"count": len(entries)})
}
