package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentObligation is one scheduled interest payment due on a fixed date.
// Exactly twelve are created per position, due dates spaced thirty days apart.
// Once Paid is set the row is immutable; the lateness sweep may only touch
// Late/DaysLate while Paid is still false.
type PaymentObligation struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PositionID uint            `gorm:"not null;uniqueIndex:idx_position_sequence,priority:1;index:idx_owner_position_due,priority:2" json:"position_id"`
	Sequence   int             `gorm:"not null;uniqueIndex:idx_position_sequence,priority:2" json:"sequence"`
	Owner      string          `gorm:"size:64;not null;index:idx_owner_position_due,priority:1" json:"owner"`
	AmountUSD  decimal.Decimal `gorm:"type:numeric;not null" json:"amount_usd"`
	DueDate    time.Time       `gorm:"not null;index:idx_owner_position_due,priority:3;index:idx_due_paid,priority:1" json:"due_date"`
	Paid       bool            `gorm:"not null;default:false;index:idx_due_paid,priority:2" json:"paid"`
	PaidDate   *time.Time      `json:"paid_date,omitempty"`
	Late       bool            `gorm:"not null;default:false" json:"late"`
	DaysLate   int             `gorm:"not null;default:0" json:"days_late"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (PaymentObligation) TableName() string {
	return "payment_obligations"
}
