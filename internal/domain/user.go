package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles stored on the user row.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account with a spendable wallet balance. The aggregate counters
// are denormalized from the ledger and updated in the same transaction as the
// corresponding ledger append, so they are always reconcilable from it.
type User struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Email        string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Fullname     string     `gorm:"column:fullname;not null" json:"fullname"`
	Role         string     `gorm:"column:role;not null;default:'user'" json:"role"`
	Balance      float64    `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	ReferralCode string     `gorm:"column:referral_code;uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *uuid.UUID `gorm:"column:referred_by;type:uuid" json:"referred_by"` // set at registration, never updated

	TotalInvested  float64 `gorm:"column:total_invested;type:decimal(18,2);not null;default:0" json:"total_invested"`
	TotalProfit    float64 `gorm:"column:total_profit;type:decimal(18,2);not null;default:0" json:"total_profit"`
	TotalWithdrawn float64 `gorm:"column:total_withdrawn;type:decimal(18,2);not null;default:0" json:"total_withdrawn"`
	TotalReferral  float64 `gorm:"column:total_referral;type:decimal(18,2);not null;default:0" json:"total_referral"`

	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (User) TableName() string {
	return "Users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}
