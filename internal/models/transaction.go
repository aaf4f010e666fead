package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry directions
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Reference types
const (
	ReferenceSale        = "sale"
	ReferenceWithdrawal  = "withdrawal"
	ReferenceTransferIn  = "transfer_in"
	ReferenceTransferOut = "transfer_out"
	ReferenceAdjustment  = "adjustment"
)

// WalletTransaction is one immutable ledger entry. Rows are append-only:
// they are never updated or deleted after commit. A transfer writes exactly
// one debit and one credit row carrying the same reference id.
type WalletTransaction struct {
	ID            uint            `gorm:"primarykey"`
	WalletID      uint            `gorm:"index;not null"`
	Direction     string          `gorm:"size:16;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	ReferenceType string          `gorm:"size:32;not null"`
	ReferenceID   string          `gorm:"index;size:64"`
	Metadata      JSON            `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

// ValidReferenceType reports whether t is one of the enumerated reference types.
func ValidReferenceType(t string) bool {
	switch t {
	case ReferenceSale, ReferenceWithdrawal, ReferenceTransferIn,
		ReferenceTransferOut, ReferenceAdjustment:
		return true
	}
	return false
}
