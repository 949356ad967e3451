package settlement

import (
	"context"
	"time"

	"coinvest-backend/internal/application/catalog"
	"coinvest-backend/internal/application/investment"
	"coinvest-backend/internal/application/ledger"
	"coinvest-backend/internal/application/referral"
	"coinvest-backend/internal/application/wallet"
	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service orchestrates the user-initiated operations. Each operation is a
// single gorm transaction: every store mutation and its ledger entry commit
// together or not at all, so a wallet mutation can never exist without its
// ledger record.
type Service struct {
	DB          *gorm.DB
	Wallet      *wallet.Service
	Ledger      *ledger.Service
	Investments *investment.Service
	Referrals   *referral.Resolver
	Catalog     *catalog.Service
}

// DepositResult is returned by Deposit.
type DepositResult struct {
	Balance              float64 `json:"balance"`
	ReferralBonusApplied float64 `json:"referral_bonus_applied,omitempty"`
}

// WithdrawResult is returned by Withdraw.
type WithdrawResult struct {
	Balance float64 `json:"balance"`
}

// RedeemResult is returned by Redeem.
type RedeemResult struct {
	Balance        float64 `json:"balance"`
	ProfitCredited float64 `json:"profit_credited"`
}

// PositionView is a position with derived progress fields for listings.
type PositionView struct {
	domain.Position
	ElapsedDays     int     `json:"elapsed_days"`
	DaysRemaining   int     `json:"days_remaining"`
	AccruedProfit   float64 `json:"accrued_profit"`   // uncredited yield owed right now
	ProjectedProfit float64 `json:"projected_profit"` // total yield over the full term
}

// Deposit credits the wallet, records the deposit, and cascades the referral
// bonus to the direct referrer if the user has one.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount float64) (*DepositResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	amount = domain.Round2(amount)

	var result DepositResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w := s.Wallet.WithTx(tx)
		l := s.Ledger.WithTx(tx)

		if err := w.Credit(ctx, userID, amount); err != nil {
			return err
		}
		if _, err := l.Append(ctx, &domain.LedgerEntry{
			UserID: userID,
			Kind:   domain.KindDeposit,
			Amount: amount,
		}); err != nil {
			return err
		}

		bonus, referrer, err := s.cascadeBonus(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		if referrer != nil {
			result.ReferralBonusApplied = bonus
		}

		balance, err := w.Balance(ctx, userID)
		if err != nil {
			return err
		}
		result.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Withdraw debits the wallet and records the withdrawal.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount float64) (*WithdrawResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	amount = domain.Round2(amount)

	var result WithdrawResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w := s.Wallet.WithTx(tx)

		if err := w.Debit(ctx, userID, amount); err != nil {
			return err
		}
		if _, err := s.Ledger.WithTx(tx).Append(ctx, &domain.LedgerEntry{
			UserID: userID,
			Kind:   domain.KindWithdrawal,
			Amount: amount,
		}); err != nil {
			return err
		}
		if err := bumpCounter(ctx, tx, userID, "total_withdrawn", amount); err != nil {
			return err
		}

		balance, err := w.Balance(ctx, userID)
		if err != nil {
			return err
		}
		result.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Buy resolves the asset's price and chosen plan, debits the wallet by the
// price, opens the position, and records the purchase. Insufficient funds
// roll the whole operation back, leaving wallet and ledger untouched.
func (s *Service) Buy(ctx context.Context, userID, assetID uuid.UUID, planIndex int) (*domain.Position, error) {
	quote, err := s.Catalog.ResolvePlan(ctx, assetID, planIndex)
	if err != nil {
		return nil, err
	}

	var position *domain.Position
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Wallet.WithTx(tx).Debit(ctx, userID, quote.Price); err != nil {
			return err
		}
		p, err := s.Investments.WithTx(tx).Open(ctx, userID, assetID, quote.Snapshot, quote.Price, quote.Days, quote.Rate)
		if err != nil {
			return err
		}
		if _, err := s.Ledger.WithTx(tx).Append(ctx, &domain.LedgerEntry{
			UserID:     userID,
			Kind:       domain.KindBuy,
			Amount:     quote.Price,
			PositionID: &p.PositionID,
		}); err != nil {
			return err
		}
		if err := bumpCounter(ctx, tx, userID, "total_invested", quote.Price); err != nil {
			return err
		}
		position = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

// Redeem closes an active position owned by the caller and credits principal
// plus any yield accrued but not yet credited, in one transaction. The
// outstanding accrual is settled via the same checkpoint compare-and-swap the
// sweep uses, so a sweep racing this redeem leaves exactly one of them
// committed.
func (s *Service) Redeem(ctx context.Context, userID, positionID uuid.UUID) (*RedeemResult, error) {
	var result RedeemResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv := s.Investments.WithTx(tx)

		p, err := inv.Get(ctx, positionID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return domain.ErrNotFound
		}
		if p.Status != domain.PositionActive {
			return domain.ErrAlreadyClosed
		}

		now := time.Now().UTC()
		profit, days := investment.AccruedProfit(p, now)
		if days > 0 {
			checkpoint := p.AccruedAt.Add(time.Duration(days) * 24 * time.Hour)
			if err := inv.AdvanceAccrual(ctx, positionID, p.AccruedAt, checkpoint); err != nil {
				return err
			}
		}
		if err := inv.Close(ctx, positionID, domain.PositionWithdrawn, now); err != nil {
			return err
		}

		payout := domain.Round2(p.Principal + profit)
		w := s.Wallet.WithTx(tx)
		if err := w.Credit(ctx, userID, payout); err != nil {
			return err
		}
		if _, err := s.Ledger.WithTx(tx).Append(ctx, &domain.LedgerEntry{
			UserID:     userID,
			Kind:       domain.KindRedeem,
			Amount:     payout,
			PositionID: &positionID,
		}); err != nil {
			return err
		}
		if profit > 0 {
			if err := bumpCounter(ctx, tx, userID, "total_profit", profit); err != nil {
				return err
			}
		}

		balance, err := w.Balance(ctx, userID)
		if err != nil {
			return err
		}
		result.Balance = balance
		result.ProfitCredited = profit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPositions returns the user's positions with derived progress fields.
func (s *Service) ListPositions(ctx context.Context, userID uuid.UUID) ([]PositionView, error) {
	positions, err := s.Investments.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	views := make([]PositionView, len(positions))
	for i := range positions {
		p := positions[i]
		elapsed := int(now.Sub(p.OpenedAt).Hours() / 24)
		if elapsed > p.PlanDays {
			elapsed = p.PlanDays
		}
		remaining := p.PlanDays - elapsed
		if p.Status != domain.PositionActive {
			remaining = 0
		}
		accrued := 0.0
		if p.Status == domain.PositionActive {
			accrued, _ = investment.AccruedProfit(&p, now)
		}
		views[i] = PositionView{
			Position:        p,
			ElapsedDays:     elapsed,
			DaysRemaining:   remaining,
			AccruedProfit:   accrued,
			ProjectedProfit: domain.Round2(p.Principal * p.YieldRate / 100 * float64(p.PlanDays)),
		}
	}
	return views, nil
}

// ListLedger returns the user's ledger entries, optionally filtered by kind.
func (s *Service) ListLedger(ctx context.Context, userID uuid.UUID, kind string) ([]domain.LedgerEntry, error) {
	return s.Ledger.ListByOwner(ctx, userID, kind)
}

// cascadeBonus credits the direct referrer with the configured percentage of
// a qualifying amount and appends the referral_bonus entry. One level only.
// Returns the bonus and the referrer (nil when no bonus applies).
func (s *Service) cascadeBonus(ctx context.Context, tx *gorm.DB, sourceUserID uuid.UUID, baseAmount float64) (float64, *domain.User, error) {
	r := s.Referrals.WithTx(tx)
	referrer, err := r.Referrer(ctx, sourceUserID)
	if err != nil {
		return 0, nil, err
	}
	if referrer == nil {
		return 0, nil, nil
	}
	percent, err := r.BonusPercent(ctx)
	if err != nil {
		return 0, nil, err
	}
	bonus := referral.ComputeBonus(baseAmount, percent)
	if bonus <= 0 {
		return 0, nil, nil
	}
	if err := s.Wallet.WithTx(tx).Credit(ctx, referrer.UserID, bonus); err != nil {
		return 0, nil, err
	}
	if _, err := s.Ledger.WithTx(tx).Append(ctx, &domain.LedgerEntry{
		UserID:       referrer.UserID,
		Kind:         domain.KindReferralBonus,
		Amount:       bonus,
		SourceUserID: &sourceUserID,
	}); err != nil {
		return 0, nil, err
	}
	if err := bumpCounter(ctx, tx, referrer.UserID, "total_referral", bonus); err != nil {
		return 0, nil, err
	}
	return bonus, referrer, nil
}

// bumpCounter increments one of the denormalized user aggregates in the same
// transaction as the ledger append that justifies it.
func bumpCounter(ctx context.Context, tx *gorm.DB, userID uuid.UUID, column string, delta float64) error {
	return tx.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", domain.Round2(delta))).Error
}
