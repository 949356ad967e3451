package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger entry kinds. The amount is always a positive magnitude; the kind
// implies the direction.
const (
	KindDeposit       = "deposit"
	KindWithdrawal    = "withdrawal"
	KindBuy           = "buy"
	KindRedeem        = "redeem"
	KindYield         = "yield"
	KindReferralBonus = "referral_bonus"
)

// CreditKinds increase the owner's balance; every other known kind debits it.
var CreditKinds = map[string]bool{
	KindDeposit:       true,
	KindRedeem:        true,
	KindYield:         true,
	KindReferralBonus: true,
}

// KnownKind reports whether k is a valid ledger kind.
func KnownKind(k string) bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindBuy, KindRedeem, KindYield, KindReferralBonus:
		return true
	}
	return false
}

// LedgerEntry is one balance-affecting event. Entries are append-only: they
// are never updated or deleted, and corrections are made by inserting
// offsetting entries. The ledger is the source of truth for every balance.
type LedgerEntry struct {
	EntryID      uuid.UUID  `gorm:"column:entry_id;type:uuid;primaryKey" json:"entry_id"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Kind         string     `gorm:"column:kind;type:varchar(20);not null;index" json:"kind"`
	Amount       float64    `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PositionID   *uuid.UUID `gorm:"column:position_id;type:uuid" json:"position_id"`
	SourceUserID *uuid.UUID `gorm:"column:source_user_id;type:uuid" json:"source_user_id"` // referral_bonus: whose activity generated it
	CreatedAt    time.Time  `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "LedgerEntries"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	return nil
}
