package repositories

import (
	"context"

	"ledgerd/internal/models"

	"github.com/shopspring/decimal"
)

// WalletStats represents aggregated ledger entry statistics for one wallet.
type WalletStats struct {
	CreditCount int64
	CreditTotal decimal.Decimal
	DebitCount  int64
	DebitTotal  decimal.Decimal
}

// WalletRepository defines the interface for wallet and ledger entry
// database operations. Mutation paths obtain the wallet row under
// SELECT ... FOR UPDATE and must run inside ExecuteInTransaction.
type WalletRepository interface {
	// Wallet rows
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByOwner(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error
	SetActive(ctx context.Context, walletID uint, active bool) error

	// Ledger entries (append-only)
	CreateEntry(ctx context.Context, entry *models.WalletTransaction) error
	ListEntries(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error)
	GetStats(ctx context.Context, walletID uint) (*WalletStats, error)

	// ExecuteInTransaction runs fn against a repository bound to one
	// database transaction; any error rolls the whole unit back.
	ExecuteInTransaction(fn func(WalletRepository) error) error
}
