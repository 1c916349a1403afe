package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is an admin-maintained collateral asset with its current unit price.
// Price changes affect all subsequent ratio computations immediately, there is
// no historical snapshotting.
type Asset struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"size:32;not null;uniqueIndex" json:"symbol"`
	PriceUSD  decimal.Decimal `gorm:"type:numeric;not null" json:"price_usd"`
	Supported bool            `gorm:"not null;default:false" json:"supported"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}
