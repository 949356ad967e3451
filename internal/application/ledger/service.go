package ledger

import (
	"context"
	"fmt"

	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the append-only ledger. There are no update or delete
// operations; corrections are made by appending offsetting entries.
type Service struct {
	DB *gorm.DB
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// Append validates and inserts a ledger entry, returning the stored row.
func (s *Service) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.KnownKind(entry.Kind) {
		return nil, fmt.Errorf("unknown ledger kind %q", entry.Kind)
	}
	if entry.Kind == domain.KindReferralBonus {
		// A bonus must name whose activity generated it, and never the recipient.
		if entry.SourceUserID == nil || *entry.SourceUserID == entry.UserID {
			return nil, fmt.Errorf("referral_bonus entry requires a distinct source user")
		}
	}
	entry.Amount = domain.Round2(entry.Amount)
	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByOwner returns the user's entries, newest first. kind filters when
// non-empty.
func (s *Service) ListByOwner(ctx context.Context, userID uuid.UUID, kind string) ([]domain.LedgerEntry, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if kind != "" {
		if !domain.KnownKind(kind) {
			return nil, fmt.Errorf("unknown ledger kind %q", kind)
		}
		q = q.Where("kind = ?", kind)
	}
	var entries []domain.LedgerEntry
	if err := q.Order(`"createdAt" DESC`).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumByOwnerAndKind returns the total amount of the user's entries of a kind.
func (s *Service) SumByOwnerAndKind(ctx context.Context, userID uuid.UUID, kind string) (float64, error) {
	var sum float64
	err := s.DB.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return domain.Round2(sum), err
}

// BalanceFromLedger reconstructs the user's balance purely from ledger
// entries: credits minus debits. Used by reconciliation checks.
func (s *Service) BalanceFromLedger(ctx context.Context, userID uuid.UUID) (float64, error) {
	var entries []domain.LedgerEntry
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return 0, err
	}
	var balance float64
	for _, e := range entries {
		if domain.CreditKinds[e.Kind] {
			balance += e.Amount
		} else {
			balance -= e.Amount
		}
	}
	return domain.Round2(balance), nil
}
