package accrual

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"coinvest-backend/internal/application/investment"
	"coinvest-backend/internal/application/ledger"
	"coinvest-backend/internal/application/referral"
	"coinvest-backend/internal/application/wallet"
	"coinvest-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrSweepInProgress is returned by RunOnce when a previous sweep has not
// finished (or another instance holds the redis lease). The tick is skipped;
// the next interval tries again.
var ErrSweepInProgress = errors.New("accrual sweep already in progress")

const lockKey = "accrual:sweep_lock"

// Scheduler runs the recurring yield sweep. One position at a time, one
// transaction per position: compute whole days owed past the checkpoint,
// credit the delta, advance the checkpoint, cascade the referral bonus, and
// close positions that reached their term. A failing position is logged and
// skipped, never aborting the batch.
type Scheduler struct {
	DB          *gorm.DB
	Rdb         *redis.Client // optional; cross-instance lease when set
	Wallet      *wallet.Service
	Ledger      *ledger.Service
	Investments *investment.Service
	Referrals   *referral.Resolver
	Interval    time.Duration

	running atomic.Bool
	stopCh  chan struct{}
}

// NewScheduler wires a sweep over the given stores. interval defaults to 24h.
func NewScheduler(db *gorm.DB, rdb *redis.Client, w *wallet.Service, l *ledger.Service, inv *investment.Service, r *referral.Resolver, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		DB:          db,
		Rdb:         rdb,
		Wallet:      w,
		Ledger:      l,
		Investments: inv,
		Referrals:   r,
		Interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Run ticks until the context is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("accrual sweep skipped")
			}
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// Stop ends the Run loop. An in-flight sweep finishes its current position
// transactions before the guard clears.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// RunOnce performs a single sweep. Mutually exclusive with itself: a second
// call while one is in flight returns ErrSweepInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSweepInProgress
	}
	defer s.running.Store(false)

	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), s.Interval).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrSweepInProgress
		}
		defer s.Rdb.Del(context.WithoutCancel(ctx), lockKey)
	}

	positions, err := s.Investments.ListActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	credited, closed, failed := 0, 0, 0
	for i := range positions {
		p := positions[i]
		didCredit, didClose, err := s.accrueOne(ctx, &p, now)
		if err != nil {
			failed++
			log.Error().Err(err).
				Str("position_id", p.PositionID.String()).
				Str("user_id", p.UserID.String()).
				Msg("position accrual failed")
			continue
		}
		if didCredit {
			credited++
		}
		if didClose {
			closed++
		}
	}
	log.Info().
		Int("positions", len(positions)).
		Int("credited", credited).
		Int("closed", closed).
		Int("failed", failed).
		Msg("accrual sweep finished")
	return nil
}

// accrueOne settles one position in its own transaction. Zero whole elapsed
// days is a no-op, which is what makes back-to-back sweeps idempotent.
func (s *Scheduler) accrueOne(ctx context.Context, p *domain.Position, now time.Time) (credited, closed bool, err error) {
	profit, days := investment.AccruedProfit(p, now)
	matured := p.CreditedDays()+days >= p.PlanDays
	if days == 0 && !matured {
		return false, false, nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w := s.Wallet.WithTx(tx)
		l := s.Ledger.WithTx(tx)
		inv := s.Investments.WithTx(tx)

		if days > 0 {
			// Zero-rate plans still advance the checkpoint; only a positive
			// profit touches the wallet and ledger.
			if profit > 0 {
				if err := w.Credit(ctx, p.UserID, profit); err != nil {
					return err
				}
				if _, err := l.Append(ctx, &domain.LedgerEntry{
					UserID:     p.UserID,
					Kind:       domain.KindYield,
					Amount:     profit,
					PositionID: &p.PositionID,
				}); err != nil {
					return err
				}
				if err := tx.Model(&domain.User{}).
					Where("user_id = ?", p.UserID).
					Update("total_profit", gorm.Expr("total_profit + ?", profit)).Error; err != nil {
					return err
				}
				if err := s.cascadeBonus(ctx, tx, p, profit); err != nil {
					return err
				}
				credited = true
			}
			checkpoint := p.AccruedAt.Add(time.Duration(days) * 24 * time.Hour)
			if err := inv.AdvanceAccrual(ctx, p.PositionID, p.AccruedAt, checkpoint); err != nil {
				return err
			}
		}

		if matured {
			// Term reached: return the principal and finish the position.
			if err := inv.Close(ctx, p.PositionID, domain.PositionCompleted, now); err != nil {
				return err
			}
			if err := w.Credit(ctx, p.UserID, p.Principal); err != nil {
				return err
			}
			if _, err := l.Append(ctx, &domain.LedgerEntry{
				UserID:     p.UserID,
				Kind:       domain.KindRedeem,
				Amount:     p.Principal,
				PositionID: &p.PositionID,
			}); err != nil {
				return err
			}
			closed = true
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return credited, closed, nil
}

// cascadeBonus pays the position owner's direct referrer the configured
// percentage of the accrued yield. Same one-level rule as deposits.
func (s *Scheduler) cascadeBonus(ctx context.Context, tx *gorm.DB, p *domain.Position, profit float64) error {
	r := s.Referrals.WithTx(tx)
	referrer, err := r.Referrer(ctx, p.UserID)
	if err != nil {
		return err
	}
	if referrer == nil {
		return nil
	}
	percent, err := r.BonusPercent(ctx)
	if err != nil {
		return err
	}
	bonus := referral.ComputeBonus(profit, percent)
	if bonus <= 0 {
		return nil
	}
	if err := s.Wallet.WithTx(tx).Credit(ctx, referrer.UserID, bonus); err != nil {
		return err
	}
	source := p.UserID
	if _, err := s.Ledger.WithTx(tx).Append(ctx, &domain.LedgerEntry{
		UserID:       referrer.UserID,
		Kind:         domain.KindReferralBonus,
		Amount:       bonus,
		PositionID:   &p.PositionID,
		SourceUserID: &source,
	}); err != nil {
		return err
	}
	return tx.Model(&domain.User{}).
		Where("user_id = ?", referrer.UserID).
		Update("total_referral", gorm.Expr("total_referral + ?", bonus)).Error
}
