package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Service errors
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrWalletInactive       = errors.New("wallet is inactive")
	ErrSelfTransfer         = errors.New("cannot transfer to the same wallet")
	ErrInvalidOwnerRole     = errors.New("invalid owner role")
	ErrInvalidReferenceType = errors.New("invalid reference type")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

// InsufficientBalanceError reports a rejected debit together with the
// state the caller needs to react without re-querying.
type InsufficientBalanceError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, requested %s",
		e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

// Is makes errors.Is(err, ErrInsufficientBalance) match.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
