package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a single collateral lock backing one fiat loan.
// LoanAmountUSD and MinRatioBps are immutable after creation; CollateralAmount
// only decreases on unlock and Active flips to false exactly once, on liquidation.
type Position struct {
	ID               uint            `gorm:"primaryKey" json:"position_id"`
	Owner            string          `gorm:"size:64;not null;index" json:"owner"`
	AssetSymbol      string          `gorm:"size:32;not null;index" json:"asset_symbol"`
	CollateralAmount decimal.Decimal `gorm:"type:numeric;not null" json:"collateral_amount"`
	LoanAmountUSD    decimal.Decimal `gorm:"type:numeric;not null" json:"loan_amount_usd"`
	MinRatioBps      int64           `gorm:"not null" json:"min_ratio_bps"`
	Active           bool            `gorm:"not null;default:true" json:"active"`
	LockedAt         time.Time       `json:"locked_at"`
	LiquidatedAt     *time.Time      `json:"liquidated_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Credential *Credential `gorm:"foreignKey:PositionID" json:"credential,omitempty"`
}

func (Position) TableName() string {
	return "positions"
}
