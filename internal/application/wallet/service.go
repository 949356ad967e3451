package wallet

import (
	"context"

	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service mutates the spendable balance on the user row. Both Credit and
// Debit are single conditional UPDATE statements, so concurrent operations on
// the same user serialize on the row while different users never block each
// other. Callers must append the matching ledger entry in the same
// transaction (use WithTx).
type Service struct {
	DB *gorm.DB
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// Credit increases the user's balance by amount.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", domain.Round2(amount)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit decreases the user's balance by amount. The balance check is part of
// the UPDATE predicate, so a debit can never push the balance negative even
// under concurrent writers.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	amount = domain.Round2(amount)
	res := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&domain.User{}).
			Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientFunds
	}
	return nil
}

// Balance returns the user's current spendable balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (float64, error) {
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return user.Balance, nil
}
