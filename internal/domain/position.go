package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Position statuses.
const (
	PositionActive    = "active"
	PositionCompleted = "completed" // plan term reached, principal returned by the accrual sweep
	PositionWithdrawn = "withdrawn" // redeemed early by the owner
)

// Position is a single fixed-term investment purchase. Principal, plan term
// and yield rate are fixed at creation. AccruedAt is the accrual checkpoint:
// yield has been credited for the whole days between OpenedAt and AccruedAt,
// and the sweep only ever credits the delta past it.
type Position struct {
	PositionID    uuid.UUID      `gorm:"column:position_id;type:uuid;primaryKey" json:"position_id"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	AssetID       uuid.UUID      `gorm:"column:asset_id;type:uuid;not null" json:"asset_id"`
	AssetSnapshot datatypes.JSON `gorm:"column:asset_snapshot" json:"asset_snapshot"`
	Principal     float64        `gorm:"column:principal;type:decimal(18,2);not null" json:"principal"`
	PlanDays      int            `gorm:"column:plan_days;not null" json:"plan_days"`
	YieldRate     float64        `gorm:"column:yield_rate;type:decimal(5,2);not null" json:"yield_rate"`
	Status        string         `gorm:"column:status;type:varchar(20);not null;default:'active';index" json:"status"`
	OpenedAt      time.Time      `gorm:"column:opened_at;not null" json:"opened_at"`
	AccruedAt     time.Time      `gorm:"column:accrued_at;not null" json:"accrued_at"`
	ClosedAt      *time.Time     `gorm:"column:closed_at" json:"closed_at"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Position) TableName() string {
	return "Positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.PositionID == uuid.Nil {
		p.PositionID = uuid.New()
	}
	return nil
}

// CreditedDays is the number of whole days of yield already credited.
func (p *Position) CreditedDays() int {
	return int(p.AccruedAt.Sub(p.OpenedAt).Hours() / 24)
}
