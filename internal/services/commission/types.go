package commission

import (
	"context"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"

	"github.com/shopspring/decimal"
)

// Overrides adjusts the rate lookup for one calculation. Precedence:
// CustomRate beats the role rate, which beats the category table rate.
type Overrides struct {
	CustomRate *decimal.Decimal
	OwnerRole  string
}

// Calculation is the result of one pure commission computation.
// CommissionAmount + NetAmount always equals the gross amount.
type Calculation struct {
	Rate             decimal.Decimal
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
}

// Service defines the commission engine interface.
type Service interface {
	// Calculate is pure: no side effects, deterministic for a given
	// rate table state.
	Calculate(amount decimal.Decimal, category string, o *Overrides) (*Calculation, error)

	// Create computes and persists a commission for transactionID with
	// status completed. One commission per transaction id.
	Create(ctx context.Context, transactionID string, amount decimal.Decimal, category string, o *Overrides) (*models.Commission, error)

	// CreateTx is Create through a repository bound to an open
	// transaction, for callers composing a larger atomic unit.
	CreateTx(ctx context.Context, tx repositories.CommissionRepository, transactionID string, amount decimal.Decimal, category string, o *Overrides) (*models.Commission, error)

	GetByTransaction(ctx context.Context, transactionID string) (*models.Commission, error)
	UpdateStatus(ctx context.Context, commissionID uint, status string) error

	// UpdateRate is the administrative operation behind rate changes:
	// it persists the new rate and atomically swaps the in-memory table.
	UpdateRate(ctx context.Context, category string, rate decimal.Decimal) error
}
