package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission statuses
const (
	CommissionPending   = "pending"
	CommissionCompleted = "completed"
	CommissionFailed    = "failed"
	CommissionCancelled = "cancelled"
)

// Commission is the platform fee taken on one transaction. The unique
// index on TransactionID prevents charging the same underlying
// transaction twice.
type Commission struct {
	ID            uint            `gorm:"primarykey"`
	TransactionID string          `gorm:"uniqueIndex;size:64;not null"`
	Rate          decimal.Decimal `gorm:"type:numeric(8,6);not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Category      string          `gorm:"size:64;not null"`
	Status        string          `gorm:"size:16;not null;default:'pending'"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CommissionRate is the durable side of the category rate table.
type CommissionRate struct {
	ID        uint            `gorm:"primarykey"`
	Category  string          `gorm:"uniqueIndex;size:64;not null"`
	Rate      decimal.Decimal `gorm:"type:numeric(8,6);not null"`
	UpdatedAt time.Time
}

// ValidCommissionStatus reports whether s is one of the enumerated statuses.
func ValidCommissionStatus(s string) bool {
	switch s {
	case CommissionPending, CommissionCompleted, CommissionFailed, CommissionCancelled:
		return true
	}
	return false
}
