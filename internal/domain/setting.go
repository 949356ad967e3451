package domain

import "time"

// Setting keys.
const SettingReferralPercent = "referral_bonus_percent"

// Setting is a single-row-per-key configuration value, writable by admins.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey" json:"key"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Setting) TableName() string {
	return "Settings"
}
