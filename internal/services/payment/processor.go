// Package payment orchestrates a confirmed payment across the ledger,
// commission and settlement engines: credit the payee's wallet, record
// the platform fee, then fire the settlement event. Notification failure
// never fails the money mutation; it is absorbed by the retry queue.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/commission"
	"ledgerd/internal/services/ledger"
	"ledgerd/internal/services/settlement"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount = errors.New("invalid payment amount")
	ErrMissingPayee  = errors.New("payment requires a payee")
)

// Notifier is the settlement delivery surface the processor uses.
type Notifier interface {
	Notify(ctx context.Context, event settlement.Event) settlement.Result
}

// Processor ties the engines together for one payment confirmation.
type Processor struct {
	uow        repositories.UnitOfWork
	ledger     ledger.Service
	commission commission.Service
	notifier   Notifier
	log        *logrus.Entry
}

// NewProcessor creates a payment processor. uow supplies the shared
// transaction both credits and the commission row commit in.
func NewProcessor(uow repositories.UnitOfWork, ledgerSvc ledger.Service, commissionSvc commission.Service, notifier Notifier) *Processor {
	if uow == nil {
		panic("unit of work is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if commissionSvc == nil {
		panic("commission service is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	return &Processor{
		uow:        uow,
		ledger:     ledgerSvc,
		commission: commissionSvc,
		notifier:   notifier,
		log:        logrus.WithField("component", "payment"),
	}
}

// CompletedPayment describes a payment the gateway confirmed.
type CompletedPayment struct {
	CorrelationID string
	PayeeID       uint
	PayeeRole     string
	GrossAmount   decimal.Decimal
	Category      string
	Currency      string
	Gateway       string
	Overrides     *commission.Overrides
	Metadata      map[string]interface{}
}

// SaleResult reports the committed outcome of a completed payment.
type SaleResult struct {
	Ledger     *ledger.MutationResult
	Commission *models.Commission
	Calc       *commission.Calculation
	Notified   bool
}

// HandleCompleted credits the payee with the net amount, credits the
// platform wallet with the fee and persists the commission record as
// one database transaction, then fires the payment.completed event.
// A failure on any write rolls all of them back, so a retried message
// cannot double-credit: the commission's unique transaction id aborts
// the whole unit on replay.
func (p *Processor) HandleCompleted(ctx context.Context, req CompletedPayment) (*SaleResult, error) {
	if req.GrossAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if req.PayeeID == 0 {
		return nil, ErrMissingPayee
	}

	calc, err := p.commission.Calculate(req.GrossAmount, req.Category, req.Overrides)
	if err != nil {
		return nil, err
	}

	payee := ledger.Owner{ID: req.PayeeID, Role: req.PayeeRole}
	platform := ledger.Owner{ID: platformOwnerID, Role: models.RolePlatform}
	if _, err := p.ledger.GetOrCreateWallet(ctx, payee.ID, payee.Role); err != nil {
		return nil, err
	}
	if calc.CommissionAmount.IsPositive() {
		if _, err := p.ledger.GetOrCreateWallet(ctx, platform.ID, platform.Role); err != nil {
			return nil, err
		}
	}

	result := &SaleResult{Calc: calc}
	err = p.uow.ExecuteInTransaction(func(wallets repositories.WalletRepository, commissions repositories.CommissionRepository) error {
		var txErr error
		result.Ledger, txErr = p.ledger.CreditTx(ctx, wallets, ledger.MutationRequest{
			Owner:         payee,
			Amount:        calc.NetAmount,
			ReferenceType: models.ReferenceSale,
			ReferenceID:   req.CorrelationID,
			Metadata:      req.Metadata,
		})
		if txErr != nil {
			return fmt.Errorf("failed to credit payee: %w", txErr)
		}

		if calc.CommissionAmount.IsPositive() {
			if _, txErr = p.ledger.CreditTx(ctx, wallets, ledger.MutationRequest{
				Owner:         platform,
				Amount:        calc.CommissionAmount,
				ReferenceType: models.ReferenceSale,
				ReferenceID:   req.CorrelationID,
			}); txErr != nil {
				return fmt.Errorf("failed to credit platform fee: %w", txErr)
			}
		}

		result.Commission, txErr = p.commission.CreateTx(ctx, commissions, req.CorrelationID, req.GrossAmount, req.Category, req.Overrides)
		if txErr != nil {
			return fmt.Errorf("failed to record commission: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.ledger.InvalidateWallet(ctx, payee)
	if calc.CommissionAmount.IsPositive() {
		p.ledger.InvalidateWallet(ctx, platform)
	}

	event := settlement.NewCompletedEvent(req.CorrelationID, req.GrossAmount, req.Currency, req.Gateway, time.Now().UTC())
	result.Notified = p.notifier.Notify(ctx, event).Delivered

	return result, nil
}

// HandleFailed fires the payment.failed event. No balance moves for a
// failed payment; the event still reaches the system of record.
func (p *Processor) HandleFailed(ctx context.Context, correlationID string, amount decimal.Decimal, currency, gateway, reason string) bool {
	event := settlement.NewFailedEvent(correlationID, amount, currency, gateway, reason)
	return p.notifier.Notify(ctx, event).Delivered
}

// platformOwnerID is the synthetic owner of the platform fee wallet.
const platformOwnerID = 1
