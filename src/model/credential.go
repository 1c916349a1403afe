package model

import "time"

// Credential is the mutable credit record minted 1:1 with a position on lock.
// Counts and score are always recomputed from the full obligation history,
// never incremented, so replays cannot double-count.
type Credential struct {
	ID          uint      `gorm:"primaryKey" json:"token_id"`
	PositionID  uint      `gorm:"not null;uniqueIndex" json:"position_id"`
	Owner       string    `gorm:"size:64;not null;index" json:"owner"`
	CreditScore int       `gorm:"not null;default:50" json:"credit_score"`
	OnTimeCount int       `gorm:"not null;default:0" json:"on_time_count"`
	LateCount   int       `gorm:"not null;default:0" json:"late_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}
