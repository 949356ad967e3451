package admin

import (
	"errors"

	accrualsvc "coinvest-backend/internal/application/accrual"
	referralsvc "coinvest-backend/internal/application/referral"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the admin settings surface and the manual accrual trigger.
type Handlers struct {
	Referrals *referralsvc.Resolver
	Scheduler *accrualsvc.Scheduler
}

type referralSettingRequest struct {
	Percent float64 `json:"percent"`
}

// SetReferralPercent updates the referral bonus percentage (0-100).
func (h *Handlers) SetReferralPercent(c *fiber.Ctx) error {
	var in referralSettingRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.Referrals.SetBonusPercent(c.Context(), in.Percent); err != nil {
		return response.Error(c, "Referral percentage must be between 0 and 100", fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Referral setting updated", fiber.Map{"percent": in.Percent}, nil)
}

// RunAccrual triggers one sweep outside the schedule. A sweep already in
// flight is reported, not doubled.
func (h *Handlers) RunAccrual(c *fiber.Ctx) error {
	if err := h.Scheduler.RunOnce(c.Context()); err != nil {
		if errors.Is(err, accrualsvc.ErrSweepInProgress) {
			return response.Error(c, "Accrual sweep already running", fiber.StatusConflict, nil)
		}
		return response.DomainError(c, err)
	}
	return response.Success(c, "Accrual sweep complete", nil, nil)
}
