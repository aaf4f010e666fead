package commission

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRate         = errors.New("rate must be between 0 and 1")
	ErrInvalidStatus       = errors.New("invalid commission status")
	ErrCommissionNotFound  = errors.New("commission not found")
	ErrDuplicateCommission = errors.New("commission already exists for transaction")
)
