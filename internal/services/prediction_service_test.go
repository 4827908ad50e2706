package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/salesight/backend/internal/models"
	"github.com/salesight/backend/internal/rpt"
)

type fakeHistoryStore struct {
	rows  []models.SalesHistory
	err   error
	calls int
}

func (f *fakeHistoryStore) ListHistory(ctx context.Context) ([]models.SalesHistory, error) {
	f.calls++
	return f.rows, f.err
}

type fakeForecastStore struct {
	byModel      map[string][]models.SalesForecast
	replaceCalls int
	err          error
}

func newFakeForecastStore() *fakeForecastStore {
	return &fakeForecastStore{byModel: make(map[string][]models.SalesForecast)}
}

func (f *fakeForecastStore) ReplaceForModel(ctx context.Context, model string, records []models.SalesForecast) error {
	f.replaceCalls++
	if f.err != nil {
		return f.err
	}
	f.byModel[model] = append([]models.SalesForecast(nil), records...)
	return nil
}

func (f *fakeForecastStore) ListForModel(ctx context.Context, model string) ([]models.SalesForecast, error) {
	return f.byModel[model], nil
}

func historyRow(date, product string, amount float64, qty int) models.SalesHistory {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.SalesHistory{Date: d, Product: product, Amount: amount, Quantity: qty}
}

// iPhone history through January 2025.
func iphoneHistory() []models.SalesHistory {
	return []models.SalesHistory{
		historyRow("2024-11-05", "iPhone", 10000, 100),
		historyRow("2024-12-05", "iPhone", 12000, 120),
		historyRow("2025-01-05", "iPhone", 11000, 110),
	}
}

// echoProvider answers every [PREDICT] row with a shape-5 keyed prediction.
func echoProvider(t *testing.T, captured *rpt.Payload) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload rpt.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("provider received bad payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if captured != nil {
			*captured = payload
		}
		type keyed struct {
			Key      string        `json:"key"`
			SalesQty []interface{} `json:"sales_qty"`
		}
		var preds []keyed
		for _, row := range payload.Rows {
			if row.SalesQty == rpt.PredictSentinel {
				preds = append(preds, keyed{
					Key:      row.Key,
					SalesQty: []interface{}{map[string]interface{}{"prediction": 120, "confidence": 0.8}},
				})
			}
		}
		resp := map[string]interface{}{"prediction": map[string]interface{}{"predictions": preds}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestService(history *fakeHistoryStore, forecasts *fakeForecastStore, rdb *redis.Client, providerURL string) *PredictionService {
	s := NewPredictionService(history, forecasts, rdb, rpt.NewClient(providerURL, ""))
	s.now = func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestRunPredictionValidatesBeforeHistoryQuery(t *testing.T) {
	history := &fakeHistoryStore{}
	svc := newTestService(history, newFakeForecastStore(), nil, "")

	for _, months := range []int{0, 37, -3} {
		_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: months})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("months=%d: err = %v, want ErrInvalidInput", months, err)
		}
	}
	if _, err := svc.RunPrediction(context.Background(), RunParams{Product: "   ", Months: 3}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank product: want ErrInvalidInput")
	}
	if history.calls != 0 {
		t.Errorf("history queried %d times before validation passed, want 0", history.calls)
	}
}

func TestRunPredictionNoHistoryListsSampleProducts(t *testing.T) {
	history := &fakeHistoryStore{rows: []models.SalesHistory{
		historyRow("2025-01-05", "iPad", 100, 1),
		historyRow("2025-01-06", "MacBook", 100, 1),
	}}
	svc := newTestService(history, newFakeForecastStore(), nil, "http://unused")

	_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3})
	if !errors.Is(err, ErrNoHistory) {
		t.Fatalf("err = %v, want ErrNoHistory", err)
	}
	if !strings.Contains(err.Error(), "iPad") || !strings.Contains(err.Error(), "MacBook") {
		t.Errorf("error should list sample products: %v", err)
	}
}

func TestRunPredictionUnconfiguredProvider(t *testing.T) {
	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, newFakeForecastStore(), nil, "")
	_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRunPredictionEndToEndWithoutPersist(t *testing.T) {
	var captured rpt.Payload
	srv := echoProvider(t, &captured)
	defer srv.Close()

	forecasts := newFakeForecastStore()
	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, forecasts, nil, srv.URL)

	records, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3, Persist: false})
	if err != nil {
		t.Fatalf("RunPrediction failed: %v", err)
	}

	// The request must cover exactly the 3 months after the last known one.
	var futureDates []string
	for _, row := range captured.Rows {
		if row.SalesQty == rpt.PredictSentinel {
			futureDates = append(futureDates, row.Date)
		}
	}
	wantFuture := []string{"2025-02-01", "2025-03-01", "2025-04-01"}
	if len(futureDates) != len(wantFuture) {
		t.Fatalf("requested %v future months, want %v", futureDates, wantFuture)
	}
	for i := range wantFuture {
		if futureDates[i] != wantFuture[i] {
			t.Errorf("future month %d = %s, want %s", i, futureDates[i], wantFuture[i])
		}
	}

	if len(records) != 3 {
		t.Fatalf("got %d forecast records, want 3", len(records))
	}
	for i, want := range []string{"2025-02", "2025-03", "2025-04"} {
		if records[i].Period != want {
			t.Errorf("record %d period = %s, want %s", i, records[i].Period, want)
		}
		if records[i].Product != "IPHONE" {
			t.Errorf("record %d product = %s, want IPHONE", i, records[i].Product)
		}
		if records[i].PredictedQuantity != 120 {
			t.Errorf("record %d quantity = %d, want 120", i, records[i].PredictedQuantity)
		}
		if records[i].Model != ModelTag {
			t.Errorf("record %d model = %s, want %s", i, records[i].Model, ModelTag)
		}
	}

	// avgPrice = 33000 / 330 = 100; revenue = 120 * 100.
	if records[0].PredictedRevenue != 12000 {
		t.Errorf("revenue = %v, want 12000", records[0].PredictedRevenue)
	}

	if forecasts.replaceCalls != 0 {
		t.Errorf("persistence touched %d times with Persist=false, want 0", forecasts.replaceCalls)
	}
}

func TestRunPredictionPersistReplacesPriorRun(t *testing.T) {
	srv := echoProvider(t, nil)
	defer srv.Close()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	forecasts := newFakeForecastStore()
	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, forecasts, rdb, srv.URL)

	first, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3, Persist: true})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 2, Persist: true})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	atRest := forecasts.byModel[ModelTag]
	if len(atRest) != len(second) {
		t.Fatalf("store holds %d records, want the second run's %d", len(atRest), len(second))
	}
	for i := range atRest {
		if atRest[i].ID != second[i].ID {
			t.Errorf("record %d is not from the second run", i)
		}
		for _, old := range first {
			if atRest[i].ID == old.ID {
				t.Errorf("stale record %s survived the replace", old.ID)
			}
		}
	}

	// Every persisted record gets a fresh unique id and the shared timestamp.
	seen := make(map[string]bool)
	for _, r := range atRest {
		if r.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Errorf("record missing id")
		}
		if seen[r.ID.String()] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID.String()] = true
		if !r.CreatedAt.Equal(atRest[0].CreatedAt) {
			t.Errorf("timestamps differ within one run")
		}
	}

	// The cache now serves the second run's set.
	cached, err := svc.LatestForecasts(context.Background())
	if err != nil {
		t.Fatalf("LatestForecasts failed: %v", err)
	}
	if len(cached) != len(second) {
		t.Errorf("cache serves %d records, want %d", len(cached), len(second))
	}
}

func TestRunPredictionDiscardsNonFutureAndFailsEmpty(t *testing.T) {
	// Provider echoes only historical months back.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rows":[
			{"date":"2024-12-01","prediction":100},
			{"date":"2025-01-01","prediction":110}
		]}`)
	}))
	defer srv.Close()

	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, newFakeForecastStore(), nil, srv.URL)
	_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3})
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestRunPredictionUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	forecasts := newFakeForecastStore()
	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, forecasts, nil, srv.URL)
	_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3, Persist: true})
	if !errors.Is(err, rpt.ErrUpstream) {
		t.Fatalf("err = %v, want rpt.ErrUpstream", err)
	}
	if forecasts.replaceCalls != 0 {
		t.Errorf("persisted state touched after upstream failure")
	}
}

func TestRunPredictionParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"accepted"}`)
	}))
	defer srv.Close()

	forecasts := newFakeForecastStore()
	svc := newTestService(&fakeHistoryStore{rows: iphoneHistory()}, forecasts, nil, srv.URL)
	_, err := svc.RunPrediction(context.Background(), RunParams{Product: "iphone", Months: 3, Persist: true})
	if !errors.Is(err, rpt.ErrUnparsable) {
		t.Fatalf("err = %v, want rpt.ErrUnparsable", err)
	}
	if forecasts.replaceCalls != 0 {
		t.Errorf("persisted state touched after parse failure")
	}
}

func TestLatestForecastsCacheAside(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	forecasts := newFakeForecastStore()
	forecasts.byModel[ModelTag] = []models.SalesForecast{{Period: "2025-02", Product: "IPHONE", Model: ModelTag}}
	svc := newTestService(&fakeHistoryStore{}, forecasts, rdb, "")

	got, err := svc.LatestForecasts(context.Background())
	if err != nil {
		t.Fatalf("LatestForecasts failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	// Second read is served from the cache even after the store changes.
	forecasts.byModel[ModelTag] = nil
	got, err = svc.LatestForecasts(context.Background())
	if err != nil {
		t.Fatalf("cached LatestForecasts failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("cache miss: got %d records, want 1", len(got))
	}
}
