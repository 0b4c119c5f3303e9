package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePredictions struct {
	panics     bool
	lastIDs    []string
	prediction *domain.ProductPrediction
}

func (f *fakePredictions) PredictDepletion(ctx context.Context, orgID, productID string) (*domain.ProductPrediction, error) {
	if f.panics {
		panic("forecast exploded")
	}
	if productID == "missing" {
		return nil, fmt.Errorf("lookup %s: %w", productID, domain.ErrProductNotFound)
	}
	return f.prediction, nil
}

func (f *fakePredictions) BulkDepletion(ctx context.Context, orgID string, productIDs []string) (*domain.BulkDepletionReport, error) {
	f.lastIDs = productIDs
	return &domain.BulkDepletionReport{OrgID: orgID, Predictions: []domain.BulkPrediction{}}, nil
}

func (f *fakePredictions) StockTrends(ctx context.Context, orgID string) (*domain.StockTrendsReport, error) {
	return nil, domain.ErrUpstreamUnavailable
}

type fakePricing struct {
	include *bool
}

func (f *fakePricing) OptimizePrice(ctx context.Context, orgID, productID string, includeCompetitors bool) (*domain.ProductPricing, error) {
	f.include = &includeCompetitors
	return &domain.ProductPricing{ProductID: productID, CompetitorPrices: []domain.CompetitorQuote{}}, nil
}

func (f *fakePricing) BulkPricing(ctx context.Context, orgID string, productIDs []string) (*domain.BulkPricingReport, error) {
	return &domain.BulkPricingReport{OrgID: orgID, PricingResults: []domain.BulkPricing{}}, nil
}

func (f *fakePricing) Elasticity(ctx context.Context, orgID, productID string) (*domain.ElasticityReport, error) {
	return nil, fmt.Errorf("%w: need at least 5 sales", domain.ErrInsufficientData)
}

func (f *fakePricing) CompetitorPrices(ctx context.Context, name, sku string) *domain.CompetitorPricesReport {
	return &domain.CompetitorPricesReport{ProductName: name, CompetitorPrices: []domain.CompetitorQuote{}, ScrapedAt: time.Now()}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter() (*gin.Engine, *fakePredictions, *fakePricing) {
	predictions := &fakePredictions{prediction: &domain.ProductPrediction{
		ProductID:  "p1",
		Prediction: domain.DepletionResult{Success: true, DaysRemaining: domain.InfiniteDays()},
		Insights:   []domain.Insight{},
	}}
	pricing := &fakePricing{}
	router := NewRouter(&Services{PredictionService: predictions, PricingService: pricing}, []string{"*"})
	return router, predictions, pricing
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter()

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, env := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, env.Success)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	}
}

func TestPredictStockDepletion(t *testing.T) {
	router, _, _ := newTestRouter()

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{name: "missing product id", body: `{"org_id":"org1"}`, status: http.StatusBadRequest, errMsg: "org_id and product_id are required"},
		{name: "malformed body", body: `{`, status: http.StatusBadRequest, errMsg: "org_id and product_id are required"},
		{name: "unknown product", body: `{"org_id":"org1","product_id":"missing"}`, status: http.StatusNotFound, errMsg: "Product not found"},
		{name: "ok", body: `{"org_id":"org1","product_id":"p1"}`, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, http.MethodPost, "/api/v1/predict/stock-depletion", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, env.Error)
			assert.Equal(t, tt.status == http.StatusOK, env.Success)
		})
	}
}

func TestPredictStockDepletion_InfinityIsSerialized(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/predict/stock-depletion", `{"org_id":"org1","product_id":"p1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"days_remaining":"Infinity"`)
}

func TestBulkDepletion_PassesProductIDs(t *testing.T) {
	router, predictions, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/predict/bulk-depletion", `{"org_id":"org1","product_ids":["a","b"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, []string{"a", "b"}, predictions.lastIDs)
}

func TestStockTrends_UpstreamFailure(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/insights/stock-trends", `{"org_id":"org1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestOptimizePricing_IncludeCompetitorsDefaultsTrue(t *testing.T) {
	router, _, pricing := newTestRouter()

	rec, _ := do(t, router, http.MethodPost, "/api/v1/pricing/optimize", `{"org_id":"org1","product_id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, pricing.include)
	assert.True(t, *pricing.include)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/pricing/optimize", `{"org_id":"org1","product_id":"p1","include_competitors":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *pricing.include)
}

func TestElasticity_InsufficientDataIsBadRequest(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/pricing/elasticity", `{"org_id":"org1","product_id":"p1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "insufficient data")
}

func TestCompetitorPrices_RequiresName(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/pricing/competitor-prices", `{"product_name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product_name is required", env.Error)

	rec, env = do(t, router, http.MethodPost, "/api/v1/pricing/competitor-prices", `{"product_name":"Widget"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"product_name":"Widget"`)
}

func TestFinancialForecast(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/v1/forecast/financial", `{"historical_data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No historical data provided", env.Error)

	body := `{"historical_data":{"revenue":[{"date":"2026-01-01","value":100},{"date":"2026-01-02","value":110}]},"forecast_days":5}`
	rec, _ = do(t, router, http.MethodPost, "/api/v1/forecast/financial", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Forecast []map[string]any `json:"forecast"`
		Metadata struct {
			ForecastDays int `json:"forecast_days"`
			DataPoints   int `json:"data_points"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Forecast, 5)
	assert.Equal(t, 5, resp.Metadata.ForecastDays)
	assert.Equal(t, 2, resp.Metadata.DataPoints)
}

func TestRevenueForecast_DefaultHorizon(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, _ := do(t, router, http.MethodPost, "/api/v1/forecast/revenue", `{"historical_data":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Forecast         []float64 `json:"forecast"`
		ConfidenceScores []float64 `json:"confidence_scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Forecast, 30)
	assert.Len(t, resp.ConfidenceScores, 30)
	assert.Equal(t, 10000.0, resp.Forecast[0])
}

func TestRecoveryReturnsJSON(t *testing.T) {
	router, predictions, _ := newTestRouter()
	predictions.panics = true

	rec, env := do(t, router, http.MethodPost, "/api/v1/predict/stock-depletion", `{"org_id":"org1","product_id":"p1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Error)
}

func TestUnknownRoute(t *testing.T) {
	router, _, _ := newTestRouter()

	rec, env := do(t, router, http.MethodGet, "/api/v1/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", env.Error)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " ", "http://c.test"})
	assert.False(t, allowAll)
	assert.Equal(t, []string{"http://a.test", "http://b.test", "http://c.test"}, origins)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, allowAll)
}
