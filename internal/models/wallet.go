package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner roles
const (
	RoleDesigner  = "designer"
	RoleOrganizer = "organizer"
	RolePlatform  = "platform"
)

// Wallet holds the running balance for one (owner, role) pair.
// The balance is the fold of all committed ledger entries; every
// mutation writes the entry and the new balance in one transaction.
type Wallet struct {
	ID        uint            `gorm:"primarykey"`
	OwnerID   uint            `gorm:"uniqueIndex:idx_wallet_owner_role;not null"`
	OwnerRole string          `gorm:"uniqueIndex:idx_wallet_owner_role;not null;size:32"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Currency  string          `gorm:"size:3;not null;default:'EUR'"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidOwnerRole reports whether role is one of the enumerated owner roles.
func ValidOwnerRole(role string) bool {
	switch role {
	case RoleDesigner, RoleOrganizer, RolePlatform:
		return true
	}
	return false
}
