package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Asset categories.
const (
	CategoryCrypto     = "crypto"
	CategoryRealEstate = "real_estate"
)

// Plan is one entry in an asset's yield plan menu. Rate is the daily yield
// percentage paid over Days days.
type Plan struct {
	Days int     `json:"days"`
	Rate float64 `json:"rate"`
}

// Asset is a catalog item with a fixed price and a menu of yield plans.
// Price and plan terms are snapshotted onto the position at purchase time;
// later catalog edits never affect open positions.
type Asset struct {
	AssetID   uuid.UUID      `gorm:"column:asset_id;type:uuid;primaryKey" json:"asset_id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Symbol    string         `gorm:"column:symbol;not null" json:"symbol"`
	Category  string         `gorm:"column:category;not null;default:'crypto'" json:"category"`
	Price     float64        `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Plans     datatypes.JSON `gorm:"column:plans" json:"plans"`
	Active    bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Asset) TableName() string {
	return "Assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.AssetID == uuid.Nil {
		a.AssetID = uuid.New()
	}
	return nil
}
