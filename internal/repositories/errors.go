package repositories

import "errors"

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrDuplicateWallet    = errors.New("wallet already exists")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrDuplicateRecord    = errors.New("record already exists")
	ErrRetryNotFound      = errors.New("retry entry not found")
)
