package repositories

import "gorm.io/gorm"

// UnitOfWork runs work spanning the wallet and commission repositories
// inside one database transaction. Any error rolls the whole unit back.
type UnitOfWork interface {
	ExecuteInTransaction(fn func(wallets WalletRepository, commissions CommissionRepository) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over db.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	if db == nil {
		panic("db is required")
	}
	return &unitOfWork{db: db}
}

func (u *unitOfWork) ExecuteInTransaction(fn func(WalletRepository, CommissionRepository) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewWalletRepository(tx), NewCommissionRepository(tx))
	})
}
