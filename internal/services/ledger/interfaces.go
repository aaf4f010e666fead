package ledger

import (
	"context"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
)

// Service defines the wallet ledger engine interface.
type Service interface {
	// Wallet lifecycle
	GetOrCreateWallet(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error)
	DeactivateWallet(ctx context.Context, owner Owner) error

	// Balance operations
	GetBalance(ctx context.Context, owner Owner) (*Balance, error)
	Credit(ctx context.Context, req MutationRequest) (*MutationResult, error)
	Debit(ctx context.Context, req MutationRequest) (*MutationResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)

	// Read-only queries
	ListTransactions(ctx context.Context, owner Owner, p Pagination) (*TransactionPage, error)
	GetStatistics(ctx context.Context, owner Owner) (*Statistics, error)

	// Transactional composition. CreditTx applies a credit through a
	// repository already bound to an open transaction, letting callers
	// commit ledger writes atomically with writes to other tables. The
	// caller invalidates the wallet cache after commit.
	CreditTx(ctx context.Context, tx repositories.WalletRepository, req MutationRequest) (*MutationResult, error)
	InvalidateWallet(ctx context.Context, owner Owner)
}

// Cache is the read-through wallet cache the service invalidates after
// every committed mutation. A nil cache disables caching.
type Cache interface {
	GetWallet(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, ownerID uint, ownerRole string) error
}
