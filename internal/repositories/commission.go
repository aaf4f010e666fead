package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerd/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository defines commission row and rate table persistence.
type CommissionRepository interface {
	Create(ctx context.Context, commission *models.Commission) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Commission, error)
	UpdateStatus(ctx context.Context, commissionID uint, status string, processedAt *time.Time) error

	LoadRates(ctx context.Context) ([]models.CommissionRate, error)
	UpsertRate(ctx context.Context, category string, rate decimal.Decimal) error
}

type commissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a commission repository backed by db.
func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) Create(ctx context.Context, commission *models.Commission) error {
	if err := r.db.WithContext(ctx).Create(commission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("failed to create commission: %w", err)
	}
	return nil
}

func (r *commissionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&commission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	return &commission, nil
}

func (r *commissionRepository) UpdateStatus(ctx context.Context, commissionID uint, status string, processedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if processedAt != nil {
		updates["processed_at"] = processedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ?", commissionID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update commission status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommissionNotFound
	}
	return nil
}

func (r *commissionRepository) LoadRates(ctx context.Context) ([]models.CommissionRate, error) {
	var rates []models.CommissionRate
	if err := r.db.WithContext(ctx).Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to load commission rates: %w", err)
	}
	return rates, nil
}

func (r *commissionRepository) UpsertRate(ctx context.Context, category string, rate decimal.Decimal) error {
	row := models.CommissionRate{Category: category, Rate: rate}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"rate": rate}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert commission rate: %w", err)
	}
	return nil
}
