/**
 * @description
 * Orchestrator for the forecast pipeline.
 * Sequences validation, history aggregation, request building, the provider
 * call, response normalization, horizon filtering, and replace-style
 * persistence. Any step's failure aborts the run; no step is retried and no
 * later step executes after a failure.
 *
 * @dependencies
 * - backend/internal/calendar
 * - backend/internal/forecast
 * - backend/internal/rpt
 * - backend/internal/models
 * - github.com/redis/go-redis/v9
 * - github.com/google/uuid
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/salesight/backend/internal/calendar"
	"github.com/salesight/backend/internal/forecast"
	"github.com/salesight/backend/internal/logger"
	"github.com/salesight/backend/internal/models"
	"github.com/salesight/backend/internal/rpt"
)

const (
	// ModelTag identifies the producing model on persisted forecasts and
	// scopes the replace performed by each successful run.
	ModelTag = "SAP-RPT-1"

	// MaxHorizonMonths bounds the requested future horizon.
	MaxHorizonMonths = 36

	cacheKeyLatestForecasts = "forecasts:latest:" + ModelTag
	cacheTTL                = 5 * time.Minute

	sampleProductLimit = 10
)

type PredictionService struct {
	History   HistoryStore
	Forecasts ForecastStore
	Redis     *redis.Client
	Provider  *rpt.Client

	now func() time.Time
}

func NewPredictionService(history HistoryStore, forecasts ForecastStore, rdb *redis.Client, provider *rpt.Client) *PredictionService {
	return &PredictionService{
		History:   history,
		Forecasts: forecasts,
		Redis:     rdb,
		Provider:  provider,
		now:       time.Now,
	}
}

// RunParams are the inputs of one prediction run.
type RunParams struct {
	Product string
	Months  int
	Persist bool
}

// RunPrediction executes the pipeline end to end and returns the computed
// forecast set. With Persist the set also replaces the previously persisted
// run for ModelTag; without it the persistence step is skipped entirely.
func (s *PredictionService) RunPrediction(ctx context.Context, params RunParams) ([]models.SalesForecast, error) {
	// Validation happens before anything touches the history store.
	displayProduct := strings.TrimSpace(params.Product)
	productToken := strings.ToUpper(displayProduct)
	if productToken == "" {
		return nil, fmt.Errorf("%w: parameter 'product' is required", ErrInvalidInput)
	}
	if params.Months < 1 || params.Months > MaxHorizonMonths {
		return nil, fmt.Errorf("%w: parameter 'months' must be an integer between 1 and %d", ErrInvalidInput, MaxHorizonMonths)
	}

	historyRaw, err := s.History.ListHistory(ctx)
	if err != nil {
		return nil, err
	}
	history := forecast.FilterByProduct(historyRaw, productToken)
	if len(history) == 0 {
		samples := forecast.SampleProducts(historyRaw, sampleProductLimit)
		if len(samples) > 0 {
			return nil, fmt.Errorf("%w for product %q; available products: %s", ErrNoHistory, displayProduct, strings.Join(samples, ", "))
		}
		return nil, fmt.Errorf("%w for product %q", ErrNoHistory, displayProduct)
	}

	agg := forecast.Aggregate(history)
	startMonth := calendar.StartMonth(agg.Months, s.now())
	futureMonths := calendar.NextMonths(startMonth, params.Months)

	payload, keyMeta := rpt.BuildRequest(displayProduct, productToken, agg, futureMonths)
	logger.Info("RPT-1 payload: %d rows (%d historical, %d future)", len(payload.Rows), len(agg.Months), len(futureMonths))

	if !s.Provider.Configured() {
		return nil, fmt.Errorf("%w: RPT1_URL not set in environment", ErrNotConfigured)
	}
	raw, err := s.Provider.Predict(ctx, payload)
	if err != nil {
		return nil, err
	}

	candidates, err := rpt.Normalize(raw, keyMeta, productToken)
	if err != nil {
		logger.Error("RPT-1 response matched no known shape: %v", err)
		return nil, err
	}
	logCandidateSample(candidates)

	records := forecast.Filter(candidates, futureMonths, agg.AveragePrice, productToken)
	if len(records) == 0 {
		return nil, ErrEmptyResult
	}
	for i := range records {
		records[i].Model = ModelTag
	}

	if params.Persist {
		createdAt := s.now().UTC()
		for i := range records {
			records[i].ID = uuid.New()
			records[i].CreatedAt = createdAt
		}
		if err := s.Forecasts.ReplaceForModel(ctx, ModelTag, records); err != nil {
			return nil, err
		}
		s.cacheLatest(ctx, records)
	}

	return records, nil
}

// LatestForecasts reads the persisted set for ModelTag, cache-aside through
// Redis so the read endpoint survives short provider-free windows cheaply.
func (s *PredictionService) LatestForecasts(ctx context.Context) ([]models.SalesForecast, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, cacheKeyLatestForecasts).Result()
		if err == nil {
			var records []models.SalesForecast
			if jsonErr := json.Unmarshal([]byte(cached), &records); jsonErr == nil {
				return records, nil
			}
		} else if err != redis.Nil {
			logger.Error("PredictionService: redis read failed: %v", err)
		}
	}

	records, err := s.Forecasts.ListForModel(ctx, ModelTag)
	if err != nil {
		return nil, err
	}
	s.cacheLatest(ctx, records)
	return records, nil
}

func (s *PredictionService) cacheLatest(ctx context.Context, records []models.SalesForecast) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, cacheKeyLatestForecasts, data, cacheTTL).Err(); err != nil {
		logger.Error("PredictionService: failed to cache forecasts: %v", err)
	}
}

func logCandidateSample(candidates []forecast.Candidate) {
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	if b, err := json.Marshal(candidates[:n]); err == nil {
		logger.Info("RPT-1 sample candidates: %s", string(b))
	}
}
