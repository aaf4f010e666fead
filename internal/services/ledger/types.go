package ledger

import (
	"ledgerd/internal/models"

	"github.com/shopspring/decimal"
)

// Owner identifies one wallet by its (owner id, owner role) pair.
type Owner struct {
	ID   uint
	Role string
}

// MutationRequest describes one credit or debit.
type MutationRequest struct {
	Owner         Owner
	Amount        decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Metadata      map[string]interface{}
}

// MutationResult reports the committed mutation.
type MutationResult struct {
	EntryID       uint
	WalletID      uint
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// TransferRequest describes an atomic two-wallet transfer.
type TransferRequest struct {
	From     Owner
	To       Owner
	Amount   decimal.Decimal
	Metadata map[string]interface{}
}

// TransferResult reports both sides of a committed transfer. The
// correlation id links the debit and credit ledger entries.
type TransferResult struct {
	CorrelationID string
	Debit         *MutationResult
	Credit        *MutationResult
}

// Balance is a wallet's current balance and currency.
type Balance struct {
	Amount   decimal.Decimal
	Currency string
}

// Pagination bounds a transaction history query.
type Pagination struct {
	Limit  int
	Offset int
}

// TransactionPage is one newest-first page of ledger entries.
type TransactionPage struct {
	Entries []models.WalletTransaction
	Total   int64
}

// Statistics are derived per-wallet aggregates, never stored.
type Statistics struct {
	CreditCount int64
	CreditTotal decimal.Decimal
	DebitCount  int64
	DebitTotal  decimal.Decimal
}

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
