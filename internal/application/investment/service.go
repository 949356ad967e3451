package investment

import (
	"context"
	"time"

	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns the position lifecycle: open at purchase, accrual checkpoint
// advances while active, exactly one close. State transitions are conditional
// UPDATEs so racing writers resolve to a single winner.
type Service struct {
	DB *gorm.DB
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// Open creates an active position. The accrual checkpoint starts at the
// opening instant, so the first yield credit lands after one whole day.
func (s *Service) Open(ctx context.Context, ownerID, assetID uuid.UUID, snapshot datatypes.JSON, principal float64, planDays int, yieldRate float64) (*domain.Position, error) {
	if principal <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if planDays <= 0 || yieldRate < 0 {
		return nil, domain.ErrInvalidPlan
	}
	now := time.Now().UTC()
	p := &domain.Position{
		UserID:        ownerID,
		AssetID:       assetID,
		AssetSnapshot: snapshot,
		Principal:     domain.Round2(principal),
		PlanDays:      planDays,
		YieldRate:     yieldRate,
		Status:        domain.PositionActive,
		OpenedAt:      now,
		AccruedAt:     now,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads a position by id.
func (s *Service) Get(ctx context.Context, positionID uuid.UUID) (*domain.Position, error) {
	var p domain.Position
	if err := s.DB.WithContext(ctx).Where("position_id = ?", positionID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListActive returns every open position, oldest first, for the accrual sweep.
func (s *Service) ListActive(ctx context.Context) ([]domain.Position, error) {
	var positions []domain.Position
	err := s.DB.WithContext(ctx).
		Where("status = ?", domain.PositionActive).
		Order("opened_at ASC").
		Find(&positions).Error
	return positions, err
}

// ListByOwner returns all of a user's positions, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Position, error) {
	var positions []domain.Position
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("opened_at DESC").
		Find(&positions).Error
	return positions, err
}

// Close transitions an active position to finalStatus and stamps closed_at.
// The status check is part of the UPDATE predicate: of two racing closers
// exactly one wins, the other gets ErrAlreadyClosed.
func (s *Service) Close(ctx context.Context, positionID uuid.UUID, finalStatus string, closedAt time.Time) error {
	res := s.DB.WithContext(ctx).Model(&domain.Position{}).
		Where("position_id = ? AND status = ?", positionID, domain.PositionActive).
		Updates(map[string]interface{}{
			"status":    finalStatus,
			"closed_at": closedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&domain.Position{}).
			Where("position_id = ?", positionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyClosed
	}
	return nil
}

// AdvanceAccrual moves the accrual checkpoint from the value the caller read
// to the new one. A compare-and-swap on the old checkpoint: if another
// transaction advanced it (or closed the position) first, nothing matches and
// the caller must roll back.
func (s *Service) AdvanceAccrual(ctx context.Context, positionID uuid.UUID, from, to time.Time) error {
	res := s.DB.WithContext(ctx).Model(&domain.Position{}).
		Where("position_id = ? AND accrued_at = ? AND status = ?", positionID, from, domain.PositionActive).
		Update("accrued_at", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// AccruableDays returns how many whole days of yield the position is owed as
// of now, capped so the lifetime total never exceeds the plan term.
func AccruableDays(p *domain.Position, now time.Time) int {
	days := int(now.Sub(p.AccruedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	remaining := p.PlanDays - p.CreditedDays()
	if remaining < 0 {
		remaining = 0
	}
	if days > remaining {
		days = remaining
	}
	return days
}

// AccruedProfit is the uncredited yield owed as of now: the shared formula
// used by both the accrual sweep and redeem.
func AccruedProfit(p *domain.Position, now time.Time) (profit float64, days int) {
	days = AccruableDays(p, now)
	if days == 0 {
		return 0, 0
	}
	return domain.Round2(p.Principal * p.YieldRate / 100 * float64(days)), days
}
