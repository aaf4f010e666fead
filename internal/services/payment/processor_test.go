package payment

import (
	"context"
	"errors"
	"testing"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/commission"
	"ledgerd/internal/services/ledger"
	"ledgerd/internal/services/settlement"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type creditCall struct {
	owner ledger.Owner
	req   ledger.MutationRequest
}

type fakeLedger struct {
	credits     []creditCall
	invalidated []ledger.Owner
	fail        error
}

func (f *fakeLedger) GetOrCreateWallet(_ context.Context, ownerID uint, ownerRole string) (*models.Wallet, error) {
	return &models.Wallet{ID: ownerID, OwnerID: ownerID, OwnerRole: ownerRole, Active: true}, nil
}

func (f *fakeLedger) Credit(_ context.Context, req ledger.MutationRequest) (*ledger.MutationResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.credits = append(f.credits, creditCall{owner: req.Owner, req: req})
	return &ledger.MutationResult{WalletID: req.Owner.ID, BalanceAfter: req.Amount}, nil
}

func (f *fakeLedger) CreditTx(ctx context.Context, _ repositories.WalletRepository, req ledger.MutationRequest) (*ledger.MutationResult, error) {
	return f.Credit(ctx, req)
}

func (f *fakeLedger) InvalidateWallet(_ context.Context, owner ledger.Owner) {
	f.invalidated = append(f.invalidated, owner)
}

func (f *fakeLedger) Debit(_ context.Context, _ ledger.MutationRequest) (*ledger.MutationResult, error) {
	return nil, nil
}
func (f *fakeLedger) Transfer(_ context.Context, _ ledger.TransferRequest) (*ledger.TransferResult, error) {
	return nil, nil
}
func (f *fakeLedger) GetBalance(_ context.Context, _ ledger.Owner) (*ledger.Balance, error) {
	return nil, nil
}
func (f *fakeLedger) ListTransactions(_ context.Context, _ ledger.Owner, _ ledger.Pagination) (*ledger.TransactionPage, error) {
	return nil, nil
}
func (f *fakeLedger) GetStatistics(_ context.Context, _ ledger.Owner) (*ledger.Statistics, error) {
	return nil, nil
}
func (f *fakeLedger) DeactivateWallet(_ context.Context, _ ledger.Owner) error { return nil }

type fakeCommission struct {
	rate      decimal.Decimal
	createErr error
	created   []*models.Commission
}

func (f *fakeCommission) Calculate(amount decimal.Decimal, _ string, _ *commission.Overrides) (*commission.Calculation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, commission.ErrInvalidAmount
	}
	fee := amount.Mul(f.rate).Round(2)
	return &commission.Calculation{Rate: f.rate, CommissionAmount: fee, NetAmount: amount.Sub(fee)}, nil
}

func (f *fakeCommission) Create(_ context.Context, transactionID string, amount decimal.Decimal, category string, o *commission.Overrides) (*models.Commission, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	calc, err := f.Calculate(amount, category, o)
	if err != nil {
		return nil, err
	}
	c := &models.Commission{
		TransactionID: transactionID,
		Rate:          calc.Rate,
		Amount:        calc.CommissionAmount,
		Category:      category,
		Status:        models.CommissionCompleted,
	}
	f.created = append(f.created, c)
	return c, nil
}

func (f *fakeCommission) CreateTx(ctx context.Context, _ repositories.CommissionRepository, transactionID string, amount decimal.Decimal, category string, o *commission.Overrides) (*models.Commission, error) {
	return f.Create(ctx, transactionID, amount, category, o)
}

func (f *fakeCommission) GetByTransaction(_ context.Context, _ string) (*models.Commission, error) {
	return nil, commission.ErrCommissionNotFound
}
func (f *fakeCommission) UpdateStatus(_ context.Context, _ uint, _ string) error  { return nil }
func (f *fakeCommission) UpdateRate(_ context.Context, _ string, _ decimal.Decimal) error {
	return nil
}

type fakeNotifier struct {
	events    []settlement.Event
	delivered bool
}

func (f *fakeNotifier) Notify(_ context.Context, event settlement.Event) settlement.Result {
	f.events = append(f.events, event)
	return settlement.Result{Delivered: f.delivered}
}

// fakeUnitOfWork restores the fakes' state when fn fails, mirroring a
// database rollback.
type fakeUnitOfWork struct {
	ledger     *fakeLedger
	commission *fakeCommission
}

func (u *fakeUnitOfWork) ExecuteInTransaction(fn func(repositories.WalletRepository, repositories.CommissionRepository) error) error {
	credits := append([]creditCall(nil), u.ledger.credits...)
	created := append([]*models.Commission(nil), u.commission.created...)
	if err := fn(nil, nil); err != nil {
		u.ledger.credits = credits
		u.commission.created = created
		return err
	}
	return nil
}

func newTestProcessor(rate string, delivered bool) (*Processor, *fakeLedger, *fakeCommission, *fakeNotifier) {
	l := &fakeLedger{}
	c := &fakeCommission{rate: dec(rate)}
	n := &fakeNotifier{delivered: delivered}
	uow := &fakeUnitOfWork{ledger: l, commission: c}
	return NewProcessor(uow, l, c, n), l, c, n
}

func TestHandleCompletedSplitsGross(t *testing.T) {
	proc, l, c, n := newTestProcessor("0.10", true)

	result, err := proc.HandleCompleted(context.Background(), CompletedPayment{
		CorrelationID: "pay-1",
		PayeeID:       42,
		PayeeRole:     models.RoleDesigner,
		GrossAmount:   dec("150.00"),
		Category:      "template_sale",
		Currency:      "EUR",
		Gateway:       "stripe",
	})
	require.NoError(t, err)
	assert.True(t, result.Notified)
	assert.True(t, result.Calc.CommissionAmount.Equal(dec("15.00")))

	// Net to the payee, fee to the platform, both tied to the payment.
	require.Len(t, l.credits, 2)
	payee := l.credits[0]
	assert.Equal(t, uint(42), payee.owner.ID)
	assert.Equal(t, models.RoleDesigner, payee.owner.Role)
	assert.True(t, payee.req.Amount.Equal(dec("135.00")))
	assert.Equal(t, "pay-1", payee.req.ReferenceID)

	platform := l.credits[1]
	assert.Equal(t, models.RolePlatform, platform.owner.Role)
	assert.True(t, platform.req.Amount.Equal(dec("15.00")))
	assert.Equal(t, "pay-1", platform.req.ReferenceID)

	require.Len(t, c.created, 1)
	assert.Equal(t, "pay-1", c.created[0].TransactionID)
	assert.Len(t, l.invalidated, 2, "both wallet caches dropped after commit")

	require.Len(t, n.events, 1)
	assert.Equal(t, settlement.EventPaymentCompleted, n.events[0].EventType)
	assert.True(t, n.events[0].Data.Amount.Equal(dec("150.00")))
}

func TestHandleCompletedZeroRateSkipsPlatformCredit(t *testing.T) {
	proc, l, _, _ := newTestProcessor("0", true)

	_, err := proc.HandleCompleted(context.Background(), CompletedPayment{
		CorrelationID: "pay-2",
		PayeeID:       7,
		PayeeRole:     models.RoleOrganizer,
		GrossAmount:   dec("20.00"),
		Category:      "subscription",
		Currency:      "EUR",
	})
	require.NoError(t, err)
	require.Len(t, l.credits, 1)
	assert.True(t, l.credits[0].req.Amount.Equal(dec("20.00")))
}

func TestHandleCompletedValidation(t *testing.T) {
	proc, _, _, _ := newTestProcessor("0.10", true)
	ctx := context.Background()

	_, err := proc.HandleCompleted(ctx, CompletedPayment{PayeeID: 1, GrossAmount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = proc.HandleCompleted(ctx, CompletedPayment{GrossAmount: dec("10.00")})
	assert.ErrorIs(t, err, ErrMissingPayee)
}

func TestHandleCompletedCommissionFailureRollsBackCredits(t *testing.T) {
	proc, l, c, n := newTestProcessor("0.10", true)
	c.createErr = errors.New("commissions table unavailable")

	_, err := proc.HandleCompleted(context.Background(), CompletedPayment{
		CorrelationID: "pay-5",
		PayeeID:       11,
		PayeeRole:     models.RoleDesigner,
		GrossAmount:   dec("80.00"),
		Category:      "template_sale",
		Currency:      "EUR",
	})
	require.Error(t, err)

	// The credits and the commission row share one transaction: a
	// failed commission insert must leave no committed credits and
	// fire no settlement event.
	assert.Empty(t, l.credits)
	assert.Empty(t, c.created)
	assert.Empty(t, n.events)
	assert.Empty(t, l.invalidated)
}

func TestHandleCompletedReplayRollsBackOnDuplicate(t *testing.T) {
	proc, l, c, _ := newTestProcessor("0.10", true)
	c.createErr = commission.ErrDuplicateCommission

	_, err := proc.HandleCompleted(context.Background(), CompletedPayment{
		CorrelationID: "pay-6",
		PayeeID:       12,
		PayeeRole:     models.RoleDesigner,
		GrossAmount:   dec("40.00"),
		Category:      "template_sale",
		Currency:      "EUR",
	})
	require.ErrorIs(t, err, commission.ErrDuplicateCommission)

	// A replayed message hits the unique transaction id and the whole
	// unit rolls back, so the payee is never credited twice.
	assert.Empty(t, l.credits)
}

func TestHandleCompletedSurvivesDeliveryFailure(t *testing.T) {
	proc, l, _, n := newTestProcessor("0.10", false)

	result, err := proc.HandleCompleted(context.Background(), CompletedPayment{
		CorrelationID: "pay-3",
		PayeeID:       9,
		PayeeRole:     models.RoleDesigner,
		GrossAmount:   dec("50.00"),
		Category:      "template_sale",
		Currency:      "EUR",
	})
	// The ledger mutation must not fail because notification failed.
	require.NoError(t, err)
	assert.False(t, result.Notified)
	assert.Len(t, l.credits, 2)
	assert.Len(t, n.events, 1)
}

func TestHandleFailed(t *testing.T) {
	proc, l, _, n := newTestProcessor("0.10", true)

	delivered := proc.HandleFailed(context.Background(), "pay-4", dec("30.00"), "EUR", "paypal", "card declined")
	assert.True(t, delivered)
	assert.Empty(t, l.credits, "failed payments move no money")

	require.Len(t, n.events, 1)
	assert.Equal(t, settlement.EventPaymentFailed, n.events[0].EventType)
	assert.Equal(t, "card declined", n.events[0].Data.ErrorMessage)
}
