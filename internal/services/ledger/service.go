package ledger

import (
	"context"
	"errors"
	"fmt"

	"ledgerd/internal/config"
	"ledgerd/internal/models"
	"ledgerd/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type service struct {
	repo  repositories.WalletRepository
	cache Cache
	cfg   config.LedgerConfig
	log   *logrus.Entry
}

// NewService creates a new ledger service. cache may be nil.
func NewService(repo repositories.WalletRepository, cache Cache, cfg config.LedgerConfig) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	return &service{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		log:   logrus.WithField("component", "ledger"),
	}
}

func (s *service) GetOrCreateWallet(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error) {
	if !models.ValidOwnerRole(ownerRole) {
		return nil, ErrInvalidOwnerRole
	}

	wallet, err := s.repo.GetByOwner(ctx, ownerID, ownerRole)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	wallet = &models.Wallet{
		OwnerID:   ownerID,
		OwnerRole: ownerRole,
		Balance:   decimal.Zero,
		Currency:  s.cfg.DefaultCurrency,
		Active:    true,
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		// Lost the race against a concurrent creator; the unique
		// (owner_id, owner_role) constraint guarantees one row.
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return s.repo.GetByOwner(ctx, ownerID, ownerRole)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"owner_role": ownerRole,
		"wallet_id":  wallet.ID,
	}).Info("wallet created")
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, owner Owner) (*Balance, error) {
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, owner.ID, owner.Role); err == nil {
			return &Balance{Amount: wallet.Balance, Currency: wallet.Currency}, nil
		}
	}

	wallet, err := s.repo.GetByOwner(ctx, owner.ID, owner.Role)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWallet(ctx, wallet); err != nil {
			s.log.WithError(err).Warn("failed to cache wallet")
		}
	}
	return &Balance{Amount: wallet.Balance, Currency: wallet.Currency}, nil
}

func (s *service) Credit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, models.DirectionCredit, req)
}

func (s *service) Debit(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, models.DirectionDebit, req)
}

// CreditTx applies a credit through tx, which must already be bound to
// an open transaction. The caller owns commit, rollback and cache
// invalidation for the touched wallet.
func (s *service) CreditTx(ctx context.Context, tx repositories.WalletRepository, req MutationRequest) (*MutationResult, error) {
	if err := validateMutation(req); err != nil {
		return nil, err
	}
	return s.mutateTx(ctx, tx, models.DirectionCredit, req)
}

// InvalidateWallet drops the cached balance for owner. Callers that
// commit mutations outside Credit/Debit/Transfer use it after commit.
func (s *service) InvalidateWallet(ctx context.Context, owner Owner) {
	s.invalidate(ctx, owner)
}

func validateMutation(req MutationRequest) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !models.ValidReferenceType(req.ReferenceType) {
		return ErrInvalidReferenceType
	}
	return nil
}

func (s *service) mutate(ctx context.Context, direction string, req MutationRequest) (*MutationResult, error) {
	if err := validateMutation(req); err != nil {
		return nil, err
	}

	var result *MutationResult
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		var err error
		result, err = s.mutateTx(ctx, tx, direction, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.Owner)
	s.log.WithFields(logrus.Fields{
		"wallet_id":      result.WalletID,
		"direction":      direction,
		"amount":         req.Amount.StringFixed(2),
		"reference_type": req.ReferenceType,
		"reference_id":   req.ReferenceID,
		"balance_after":  result.BalanceAfter.StringFixed(2),
	}).Info("ledger entry committed")
	return result, nil
}

// mutateTx locks the wallet row inside the open transaction tx and
// applies one entry.
func (s *service) mutateTx(ctx context.Context, tx repositories.WalletRepository, direction string, req MutationRequest) (*MutationResult, error) {
	wallet, err := tx.GetByOwnerForUpdate(ctx, req.Owner.ID, req.Owner.Role)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	if !wallet.Active {
		return nil, ErrWalletInactive
	}
	return applyEntry(ctx, tx, wallet, direction, req)
}

// applyEntry writes one ledger entry and the matching balance update.
// Caller must hold the wallet row lock inside tx.
func applyEntry(ctx context.Context, tx repositories.WalletRepository, wallet *models.Wallet, direction string, req MutationRequest) (*MutationResult, error) {
	before := wallet.Balance
	var after decimal.Decimal
	switch direction {
	case models.DirectionCredit:
		after = before.Add(req.Amount)
	case models.DirectionDebit:
		if before.LessThan(req.Amount) {
			return nil, &InsufficientBalanceError{Balance: before, Requested: req.Amount}
		}
		after = before.Sub(req.Amount)
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}

	entry := &models.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     direction,
		Amount:        req.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Metadata:      models.NewJSON(req.Metadata),
	}
	if err := tx.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := tx.UpdateBalance(ctx, wallet.ID, after); err != nil {
		return nil, err
	}
	wallet.Balance = after

	return &MutationResult{
		EntryID:       entry.ID,
		WalletID:      wallet.ID,
		BalanceBefore: before,
		BalanceAfter:  after,
	}, nil
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	correlationID := uuid.NewString()
	result := &TransferResult{CorrelationID: correlationID}

	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		source, err := tx.GetByOwner(ctx, req.From.ID, req.From.Role)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return fmt.Errorf("source: %w", ErrWalletNotFound)
			}
			return err
		}
		dest, err := tx.GetByOwner(ctx, req.To.ID, req.To.Role)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return fmt.Errorf("destination: %w", ErrWalletNotFound)
			}
			return err
		}
		if source.ID == dest.ID {
			return ErrSelfTransfer
		}

		// Lock both rows in ascending id order so that two transfers
		// moving funds in opposite directions cannot deadlock.
		firstID, secondID := source.ID, dest.ID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}
		first, err := tx.GetByIDForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.GetByIDForUpdate(ctx, secondID)
		if err != nil {
			return err
		}
		if first.ID == source.ID {
			source, dest = first, second
		} else {
			source, dest = second, first
		}

		if !source.Active || !dest.Active {
			return ErrWalletInactive
		}

		debitReq := MutationRequest{
			Owner:         req.From,
			Amount:        req.Amount,
			ReferenceType: models.ReferenceTransferOut,
			ReferenceID:   correlationID,
			Metadata:      req.Metadata,
		}
		result.Debit, err = applyEntry(ctx, tx, source, models.DirectionDebit, debitReq)
		if err != nil {
			return err
		}

		creditReq := MutationRequest{
			Owner:         req.To,
			Amount:        req.Amount,
			ReferenceType: models.ReferenceTransferIn,
			ReferenceID:   correlationID,
			Metadata:      req.Metadata,
		}
		result.Credit, err = applyEntry(ctx, tx, dest, models.DirectionCredit, creditReq)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.From)
	s.invalidate(ctx, req.To)
	s.log.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"from_wallet":    result.Debit.WalletID,
		"to_wallet":      result.Credit.WalletID,
		"amount":         req.Amount.StringFixed(2),
	}).Info("transfer committed")
	return result, nil
}

func (s *service) ListTransactions(ctx context.Context, owner Owner, p Pagination) (*TransactionPage, error) {
	wallet, err := s.resolveWallet(ctx, owner)
	if err != nil {
		return nil, err
	}

	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	entries, total, err := s.repo.ListEntries(ctx, wallet.ID, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &TransactionPage{Entries: entries, Total: total}, nil
}

func (s *service) GetStatistics(ctx context.Context, owner Owner) (*Statistics, error) {
	wallet, err := s.resolveWallet(ctx, owner)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetStats(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &Statistics{
		CreditCount: stats.CreditCount,
		CreditTotal: stats.CreditTotal,
		DebitCount:  stats.DebitCount,
		DebitTotal:  stats.DebitTotal,
	}, nil
}

func (s *service) DeactivateWallet(ctx context.Context, owner Owner) error {
	wallet, err := s.resolveWallet(ctx, owner)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, wallet.ID, false); err != nil {
		return fmt.Errorf("failed to deactivate wallet: %w", err)
	}
	s.invalidate(ctx, owner)
	return nil
}

func (s *service) resolveWallet(ctx context.Context, owner Owner) (*models.Wallet, error) {
	wallet, err := s.repo.GetByOwner(ctx, owner.ID, owner.Role)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) invalidate(ctx context.Context, owner Owner) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, owner.ID, owner.Role); err != nil {
		s.log.WithError(err).Warn("failed to invalidate wallet cache")
	}
}
