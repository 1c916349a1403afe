package model

import "time"

// User is a borrower identified by wallet address. Bank account details are
// used by the off-core fiat side and are never validated here.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	WalletAddress  string    `gorm:"size:64;not null;uniqueIndex" json:"wallet_address"`
	Email          string    `gorm:"size:255" json:"email,omitempty"`
	PassphraseHash string    `gorm:"size:128" json:"-"`
	BankName       string    `gorm:"size:255" json:"bank_name,omitempty"`
	AccountNumber  string    `gorm:"size:64" json:"account_number,omitempty"`
	RoutingNumber  string    `gorm:"size:64" json:"routing_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateBankAccountPayload is the mutable subset of a user profile.
type UpdateBankAccountPayload struct {
	BankName      *string `json:"bank_name,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	RoutingNumber *string `json:"routing_number,omitempty"`
}
