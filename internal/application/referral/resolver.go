package referral

import (
	"context"
	"strconv"

	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resolver answers who referred a user and how big the bonus on a qualifying
// event is. Bonuses cascade one level only: the direct referrer, never the
// referrer's own referrer.
type Resolver struct {
	DB *gorm.DB

	// DefaultPercent applies when the Settings row is absent. Zero is a valid
	// "no bonus" configuration.
	DefaultPercent float64
}

// WithTx returns a copy of the resolver bound to the given transaction.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{DB: tx, DefaultPercent: r.DefaultPercent}
}

// Referrer returns the user's immutable referrer, or nil when the user was
// not referred or the referrer's account no longer exists.
func (r *Resolver) Referrer(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if user.ReferredBy == nil {
		return nil, nil
	}
	var referrer domain.User
	if err := r.DB.WithContext(ctx).Where("user_id = ?", *user.ReferredBy).First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &referrer, nil
}

// BonusPercent reads the configured bonus percentage, falling back to the
// default when unset. Values outside [0,100] are a configuration error.
func (r *Resolver) BonusPercent(ctx context.Context) (float64, error) {
	percent := r.DefaultPercent
	var setting domain.Setting
	err := r.DB.WithContext(ctx).Where("key = ?", domain.SettingReferralPercent).First(&setting).Error
	if err == nil {
		parsed, perr := strconv.ParseFloat(setting.Value, 64)
		if perr != nil {
			return 0, domain.ErrConfiguration
		}
		percent = parsed
	} else if err != gorm.ErrRecordNotFound {
		return 0, err
	}
	if percent < 0 || percent > 100 {
		return 0, domain.ErrConfiguration
	}
	return percent, nil
}

// SetBonusPercent writes the setting (admin surface). Range-checked here so a
// bad value can never reach BonusPercent readers.
func (r *Resolver) SetBonusPercent(ctx context.Context, percent float64) error {
	if percent < 0 || percent > 100 {
		return domain.ErrConfiguration
	}
	setting := domain.Setting{
		Key:   domain.SettingReferralPercent,
		Value: strconv.FormatFloat(percent, 'f', -1, 64),
	}
	return r.DB.WithContext(ctx).Save(&setting).Error
}

// ComputeBonus returns the bonus owed on a qualifying amount at the given
// percentage; zero when the percentage is not positive.
func ComputeBonus(baseAmount, percent float64) float64 {
	if baseAmount <= 0 || percent <= 0 {
		return 0
	}
	return domain.Round2(baseAmount * percent / 100)
}
