/**
 * @description
 * GORM-backed implementation of the history and forecast stores.
 * The forecast replace runs delete-by-model and bulk insert inside a single
 * transaction so readers never observe a partial mixture of two runs.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/salesight/backend/internal/logger"
	"github.com/salesight/backend/internal/models"
	"gorm.io/gorm"
)

// HistoryStore loads the full sales history ordered by date ascending.
// Product filtering happens in-process afterwards, so results never depend on
// store-side collation.
type HistoryStore interface {
	ListHistory(ctx context.Context) ([]models.SalesHistory, error)
}

// ForecastStore persists and reads forecast sets keyed by model identity.
type ForecastStore interface {
	// ReplaceForModel atomically deletes every record tagged with model and
	// inserts the new set as one committed unit.
	ReplaceForModel(ctx context.Context, model string, records []models.SalesForecast) error
	ListForModel(ctx context.Context, model string) ([]models.SalesForecast, error)
}

// SalesStore is the Postgres implementation of both store interfaces.
type SalesStore struct {
	DB *gorm.DB
}

func NewSalesStore(db *gorm.DB) *SalesStore {
	return &SalesStore{DB: db}
}

func (s *SalesStore) ListHistory(ctx context.Context) ([]models.SalesHistory, error) {
	var rows []models.SalesHistory
	if err := s.DB.WithContext(ctx).Order("date asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading sales history: %w", err)
	}
	return rows, nil
}

func (s *SalesStore) ReplaceForModel(ctx context.Context, model string, records []models.SalesForecast) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("model = ?", model).Delete(&models.SalesForecast{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			logger.Error("SalesStore: forecast replace failed (pg code %s): %v", pgErr.Code, err)
		} else {
			logger.Error("SalesStore: forecast replace failed: %v", err)
		}
		return fmt.Errorf("replacing forecasts for model %s: %w", model, err)
	}
	return nil
}

func (s *SalesStore) ListForModel(ctx context.Context, model string) ([]models.SalesForecast, error) {
	var rows []models.SalesForecast
	if err := s.DB.WithContext(ctx).Where("model = ?", model).Order("period asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading forecasts for model %s: %w", model, err)
	}
	return rows, nil
}
