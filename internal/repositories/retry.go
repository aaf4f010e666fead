package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerd/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RetryRepository persists settlement retry entries. One row per
// correlation id; Enqueue keeps the attempt counter of an existing row
// and never reopens an exhausted one.
type RetryRepository interface {
	Enqueue(ctx context.Context, entry *models.SettlementRetry) error
	Due(ctx context.Context, now time.Time, limit int) ([]models.SettlementRetry, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.SettlementRetry, error)
	Delete(ctx context.Context, correlationID string) error
	RecordFailure(ctx context.Context, id uint, attempts int, nextRetryAt time.Time, state, lastError string) error
	ListByState(ctx context.Context, state string) ([]models.SettlementRetry, error)
	Reopen(ctx context.Context, correlationID string, maxAttempts int, nextRetryAt time.Time) error
}

type retryRepository struct {
	db *gorm.DB
}

// NewRetryRepository creates a retry repository backed by db.
func NewRetryRepository(db *gorm.DB) RetryRepository {
	return &retryRepository{db: db}
}

func (r *retryRepository) Enqueue(ctx context.Context, entry *models.SettlementRetry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "correlation_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":        entry.Status,
				"payload":       entry.Payload,
				"max_attempts":  entry.MaxAttempts,
				"next_retry_at": entry.NextRetryAt,
				"last_error":    entry.LastError,
			}),
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to enqueue retry entry: %w", err)
	}
	return nil
}

func (r *retryRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.SettlementRetry, error) {
	var entries []models.SettlementRetry
	err := r.db.WithContext(ctx).
		Where("state = ? AND next_retry_at <= ? AND attempts < max_attempts",
			models.RetryPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due retry entries: %w", err)
	}
	return entries, nil
}

func (r *retryRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*models.SettlementRetry, error) {
	var entry models.SettlementRetry
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRetryNotFound
		}
		return nil, fmt.Errorf("failed to get retry entry: %w", err)
	}
	return &entry, nil
}

func (r *retryRepository) Delete(ctx context.Context, correlationID string) error {
	result := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Delete(&models.SettlementRetry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete retry entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRetryNotFound
	}
	return nil
}

func (r *retryRepository) RecordFailure(ctx context.Context, id uint, attempts int, nextRetryAt time.Time, state, lastError string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SettlementRetry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":      attempts,
			"next_retry_at": nextRetryAt,
			"state":         state,
			"last_error":    lastError,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record retry failure: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRetryNotFound
	}
	return nil
}

func (r *retryRepository) ListByState(ctx context.Context, state string) ([]models.SettlementRetry, error) {
	var entries []models.SettlementRetry
	err := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("updated_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list retry entries: %w", err)
	}
	return entries, nil
}

func (r *retryRepository) Reopen(ctx context.Context, correlationID string, maxAttempts int, nextRetryAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SettlementRetry{}).
		Where("correlation_id = ? AND state = ?", correlationID, models.RetryExhausted).
		Updates(map[string]interface{}{
			"attempts":      0,
			"max_attempts":  maxAttempts,
			"next_retry_at": nextRetryAt,
			"state":         models.RetryPending,
			"last_error":    "",
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reopen retry entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRetryNotFound
	}
	return nil
}
