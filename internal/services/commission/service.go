// Package commission implements the commission engine: pure fee
// computation over a rate table plus persistence of commission records
// keyed to their originating transaction.
//
// The rate table is loaded once at construction (config defaults layered
// with durable overrides from the commission_rates table) and is
// read-only afterwards except through the administrative UpdateRate.
package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerd/internal/config"
	"ledgerd/internal/models"
	"ledgerd/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type service struct {
	repo  repositories.CommissionRepository
	rates *rateTable
	log   *logrus.Entry
}

// NewService creates the commission engine, layering durable rate
// overrides from the store on top of the configured defaults.
func NewService(ctx context.Context, repo repositories.CommissionRepository, cfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		panic("repo is required")
	}
	if cfg.DefaultRate.IsZero() {
		cfg.DefaultRate = decimal.NewFromFloat(0.10)
	}

	categories := make(map[string]decimal.Decimal, len(cfg.Rates))
	for k, v := range cfg.Rates {
		categories[k] = v
	}
	stored, err := repo.LoadRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate table: %w", err)
	}
	for _, r := range stored {
		categories[r.Category] = r.Rate
	}

	return &service{
		repo:  repo,
		rates: newRateTable(cfg.DefaultRate, categories, cfg.RoleRates),
		log:   logrus.WithField("component", "commission"),
	}, nil
}

func (s *service) Calculate(amount decimal.Decimal, category string, o *Overrides) (*Calculation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if o != nil && o.CustomRate != nil && !validRate(*o.CustomRate) {
		return nil, ErrInvalidRate
	}

	rate := s.rates.resolve(category, o)
	commissionAmount := amount.Mul(rate).Round(2)
	return &Calculation{
		Rate:             rate,
		CommissionAmount: commissionAmount,
		NetAmount:        amount.Sub(commissionAmount),
	}, nil
}

func (s *service) Create(ctx context.Context, transactionID string, amount decimal.Decimal, category string, o *Overrides) (*models.Commission, error) {
	return s.createWith(ctx, s.repo, transactionID, amount, category, o)
}

// CreateTx persists the commission through tx, which must already be
// bound to an open transaction, so the row commits or rolls back with
// the caller's other writes.
func (s *service) CreateTx(ctx context.Context, tx repositories.CommissionRepository, transactionID string, amount decimal.Decimal, category string, o *Overrides) (*models.Commission, error) {
	return s.createWith(ctx, tx, transactionID, amount, category, o)
}

func (s *service) createWith(ctx context.Context, repo repositories.CommissionRepository, transactionID string, amount decimal.Decimal, category string, o *Overrides) (*models.Commission, error) {
	calc, err := s.Calculate(amount, category, o)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	commission := &models.Commission{
		TransactionID: transactionID,
		Rate:          calc.Rate,
		Amount:        calc.CommissionAmount,
		Category:      category,
		Status:        models.CommissionCompleted,
		ProcessedAt:   &now,
	}
	if err := repo.Create(ctx, commission); err != nil {
		if errors.Is(err, repositories.ErrDuplicateRecord) {
			return nil, ErrDuplicateCommission
		}
		return nil, fmt.Errorf("failed to persist commission: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"category":       category,
		"rate":           calc.Rate.String(),
		"amount":         calc.CommissionAmount.StringFixed(2),
	}).Info("commission recorded")
	return commission, nil
}

func (s *service) GetByTransaction(ctx context.Context, transactionID string) (*models.Commission, error) {
	commission, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommissionNotFound) {
			return nil, ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	return commission, nil
}

func (s *service) UpdateStatus(ctx context.Context, commissionID uint, status string) error {
	if !models.ValidCommissionStatus(status) {
		return ErrInvalidStatus
	}

	var processedAt *time.Time
	switch status {
	case models.CommissionCompleted, models.CommissionFailed, models.CommissionCancelled:
		now := time.Now().UTC()
		processedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, commissionID, status, processedAt); err != nil {
		if errors.Is(err, repositories.ErrCommissionNotFound) {
			return ErrCommissionNotFound
		}
		return fmt.Errorf("failed to update commission status: %w", err)
	}
	return nil
}

func (s *service) UpdateRate(ctx context.Context, category string, rate decimal.Decimal) error {
	if !validRate(rate) {
		return ErrInvalidRate
	}

	if err := s.repo.UpsertRate(ctx, category, rate); err != nil {
		return fmt.Errorf("failed to persist rate: %w", err)
	}
	s.rates.setCategory(category, rate)

	s.log.WithFields(logrus.Fields{
		"category": category,
		"rate":     rate.String(),
	}).Info("commission rate updated")
	return nil
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}
