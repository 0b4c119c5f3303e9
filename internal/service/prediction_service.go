package service

import (
	"context"
	"math"
	"sort"

	"github.com/andresuchdata/setledger-ai/internal/cache"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/forecast"
	"github.com/andresuchdata/setledger-ai/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	criticalDays   = 7
	lowDays        = 30
	healthyCapDays = 90
)

type PredictionService struct {
	data       repository.DataSource
	forecaster *forecast.Forecaster
	cache      cache.TrendsCache
	limits     Limits
}

func NewPredictionService(data repository.DataSource, forecaster *forecast.Forecaster, cacheImpl cache.TrendsCache, limits Limits) *PredictionService {
	if forecaster == nil {
		forecaster = forecast.NewForecaster()
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopTrendsCache()
	}
	return &PredictionService{
		data:       data,
		forecaster: forecaster,
		cache:      cacheImpl,
		limits:     limits.withDefaults(),
	}
}

// PredictDepletion forecasts when one product falls below its minimum stock
func (s *PredictionService) PredictDepletion(ctx context.Context, orgID, productID string) (*domain.ProductPrediction, error) {
	product, err := s.data.GetProduct(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	observations, err := s.data.GetStockMovements(ctx, orgID, productID, s.limits.HistoryDays)
	if err != nil {
		return nil, err
	}

	return &domain.ProductPrediction{
		ProductID:    productID,
		ProductName:  product.Name,
		CurrentStock: product.CurrentStock,
		MinStock:     product.MinStock,
		Prediction:   s.forecaster.Predict(ctx, observations, product.Context()),
		Insights:     forecast.Analyze(observations),
	}, nil
}

// GetInsights returns the qualitative observations for a product's recent stock movements
func (s *PredictionService) GetInsights(ctx context.Context, orgID, productID string) ([]domain.Insight, error) {
	observations, err := s.data.GetStockMovements(ctx, orgID, productID, s.limits.HistoryDays)
	if err != nil {
		return nil, err
	}
	return forecast.Analyze(observations), nil
}

// BulkDepletion predicts depletion for up to BulkLimit products. Products that cannot be
// loaded are skipped. Rows are ordered by days remaining, unknown and infinite last.
func (s *PredictionService) BulkDepletion(ctx context.Context, orgID string, productIDs []string) (*domain.BulkDepletionReport, error) {
	targets, err := resolveTargets(ctx, s.data, orgID, productIDs, s.limits.BulkLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]*domain.BulkPrediction, len(targets))
	err = fanOut(ctx, len(targets), s.limits.Workers, func(ctx context.Context, i int) {
		product, ok := loadProduct(ctx, s.data, orgID, targets[i])
		if !ok {
			return
		}

		prediction, ok := s.predict(ctx, orgID, product)
		if !ok {
			return
		}

		rows[i] = &domain.BulkPrediction{
			ProductID:     product.ProductID,
			ProductName:   product.Name,
			CurrentStock:  product.CurrentStock,
			MinStock:      product.MinStock,
			DepletionDate: prediction.DepletionDate,
			DaysRemaining: prediction.DaysRemaining,
			Confidence:    prediction.Confidence,
			Method:        prediction.Method,
		}
	})
	if err != nil {
		return nil, err
	}

	predictions := make([]domain.BulkPrediction, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			predictions = append(predictions, *row)
		}
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return sortKey(predictions[i].DaysRemaining) < sortKey(predictions[j].DaysRemaining)
	})

	return &domain.BulkDepletionReport{
		OrgID:         orgID,
		TotalProducts: len(predictions),
		Predictions:   predictions,
	}, nil
}

// StockTrends buckets up to TrendsLimit active products by how soon they run out
func (s *PredictionService) StockTrends(ctx context.Context, orgID string) (*domain.StockTrendsReport, error) {
	limit := s.limits.TrendsLimit
	if report, ok, err := s.cache.GetTrends(ctx, orgID, limit); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("stock trends: cache get failed")
	}

	targets, err := resolveTargets(ctx, s.data, orgID, nil, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.DepletionResult, len(targets))
	err = fanOut(ctx, len(targets), s.limits.Workers, func(ctx context.Context, i int) {
		if prediction, ok := s.predict(ctx, orgID, targets[i].product); ok {
			results[i] = &prediction
		}
	})
	if err != nil {
		return nil, err
	}

	trends := domain.StockTrends{
		CriticalStock: []domain.TrendEntry{},
		LowStock:      []domain.TrendEntry{},
		HealthyStock:  []domain.TrendEntry{},
		NoData:        []domain.TrendEntry{},
	}
	for i, t := range targets {
		if results[i] == nil {
			continue
		}
		classify(&trends, *t.product, *results[i])
	}

	report := &domain.StockTrendsReport{
		OrgID:  orgID,
		Trends: trends,
		Summary: domain.StockTrendsSummary{
			CriticalCount: len(trends.CriticalStock),
			LowCount:      len(trends.LowStock),
			HealthyCount:  len(trends.HealthyStock),
			NoDataCount:   len(trends.NoData),
		},
	}

	if err := s.cache.SetTrends(ctx, orgID, limit, report); err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("stock trends: cache set failed")
	}

	return report, nil
}

func (s *PredictionService) predict(ctx context.Context, orgID string, product *domain.Product) (domain.DepletionResult, bool) {
	observations, err := s.data.GetStockMovements(ctx, orgID, product.ProductID, s.limits.HistoryDays)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Str("product_id", product.ProductID).Msg("bulk: failed to load stock movements, skipping")
		return domain.DepletionResult{}, false
	}
	return s.forecaster.Predict(ctx, observations, product.Context()), true
}

func classify(trends *domain.StockTrends, product domain.Product, prediction domain.DepletionResult) {
	entry := domain.TrendEntry{
		ProductID:    product.ProductID,
		Name:         product.Name,
		CurrentStock: product.CurrentStock,
	}

	if !prediction.Success || prediction.DaysRemaining == nil {
		trends.NoData = append(trends.NoData, entry)
		return
	}

	days := healthyCapDays
	if !prediction.DaysRemaining.Infinite {
		days = prediction.DaysRemaining.Days
	}

	switch {
	case days < criticalDays:
		entry.DaysRemaining = &days
		trends.CriticalStock = append(trends.CriticalStock, entry)
	case days <= lowDays:
		entry.DaysRemaining = &days
		trends.LowStock = append(trends.LowStock, entry)
	default:
		capped := min(days, healthyCapDays)
		entry.DaysRemaining = &capped
		trends.HealthyStock = append(trends.HealthyStock, entry)
	}
}

func sortKey(d *domain.DaysRemaining) float64 {
	if d == nil {
		return math.Inf(1)
	}
	return d.Float()
}
