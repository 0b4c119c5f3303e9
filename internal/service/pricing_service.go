package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/competitor"
	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/pricing"
	"github.com/andresuchdata/setledger-ai/internal/repository"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"github.com/rs/zerolog/log"
)

type PricingService struct {
	data      repository.DataSource
	optimizer *pricing.Optimizer
	quotes    competitor.Source
	limits    Limits
	now       func() time.Time
}

func NewPricingService(data repository.DataSource, optimizer *pricing.Optimizer, quotes competitor.Source, limits Limits) *PricingService {
	if optimizer == nil {
		optimizer = pricing.NewOptimizer()
	}
	if quotes == nil {
		quotes = competitor.StubSource{}
	}
	return &PricingService{
		data:      data,
		optimizer: optimizer,
		quotes:    quotes,
		limits:    limits.withDefaults(),
		now:       time.Now,
	}
}

// OptimizePrice recommends a price for one product, consulting competitors when asked
func (s *PricingService) OptimizePrice(ctx context.Context, orgID, productID string, includeCompetitors bool) (*domain.ProductPricing, error) {
	product, err := s.data.GetProduct(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	sales, err := s.data.GetSalesHistory(ctx, orgID, productID, s.limits.SalesHistoryDays)
	if err != nil {
		return nil, err
	}

	quotes := []domain.CompetitorQuote{}
	if includeCompetitors {
		quotes = s.fetchQuotes(ctx, product.Name, product.SKU)
	}

	return &domain.ProductPricing{
		ProductID:        productID,
		ProductName:      product.Name,
		Pricing:          s.optimizer.Optimize(ctx, product.Context(), sales, quotes),
		CompetitorPrices: quotes,
		SalesDataPoints:  len(sales),
	}, nil
}

// BulkPricing optimizes up to BulkLimit products without competitor data. Only successful
// recommendations are returned, largest absolute price change first.
func (s *PricingService) BulkPricing(ctx context.Context, orgID string, productIDs []string) (*domain.BulkPricingReport, error) {
	targets, err := resolveTargets(ctx, s.data, orgID, productIDs, s.limits.BulkLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]*domain.BulkPricing, len(targets))
	err = fanOut(ctx, len(targets), s.limits.Workers, func(ctx context.Context, i int) {
		product, ok := loadProduct(ctx, s.data, orgID, targets[i])
		if !ok {
			return
		}

		sales, err := s.data.GetSalesHistory(ctx, orgID, product.ProductID, s.limits.SalesHistoryDays)
		if err != nil {
			log.Warn().Err(err).Str("org_id", orgID).Str("product_id", product.ProductID).Msg("bulk pricing: failed to load sales, skipping")
			return
		}

		result := s.optimizer.Optimize(ctx, product.Context(), sales, nil)
		if !result.Success {
			log.Warn().Str("org_id", orgID).Str("product_id", product.ProductID).Str("error", result.Error).Msg("bulk pricing: optimization failed, skipping")
			return
		}

		rows[i] = bulkRow(product, result)
	})
	if err != nil {
		return nil, err
	}

	results := make([]domain.BulkPricing, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			results = append(results, *row)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].PriceChange) > math.Abs(results[j].PriceChange)
	})

	return &domain.BulkPricingReport{
		OrgID:          orgID,
		TotalProducts:  len(results),
		PricingResults: results,
	}, nil
}

// Elasticity estimates price elasticity of demand from the product's sales history
func (s *PricingService) Elasticity(ctx context.Context, orgID, productID string) (*domain.ElasticityReport, error) {
	sales, err := s.data.GetSalesHistory(ctx, orgID, productID, s.limits.SalesHistoryDays)
	if err != nil {
		return nil, err
	}

	if len(sales) < pricing.MinElasticitySales {
		return nil, fmt.Errorf("%w: need at least %d sales for elasticity calculation, got %d",
			domain.ErrInsufficientData, pricing.MinElasticitySales, len(sales))
	}

	e := pricing.Elasticity(sales)
	return &domain.ElasticityReport{
		ProductID:      productID,
		Elasticity:     formulas.Round(e, 3),
		Interpretation: pricing.InterpretElasticity(e),
		DataPoints:     len(sales),
	}, nil
}

// CompetitorPrices returns the quotes currently visible for a product name
func (s *PricingService) CompetitorPrices(ctx context.Context, name, sku string) *domain.CompetitorPricesReport {
	return &domain.CompetitorPricesReport{
		ProductName:      name,
		CompetitorPrices: s.fetchQuotes(ctx, name, sku),
		ScrapedAt:        s.now(),
	}
}

func (s *PricingService) fetchQuotes(ctx context.Context, name, sku string) []domain.CompetitorQuote {
	quotes, err := s.quotes.Quotes(ctx, name, sku)
	if err != nil {
		log.Warn().Err(err).Str("product", name).Msg("competitor quotes unavailable")
		return []domain.CompetitorQuote{}
	}
	if quotes == nil {
		return []domain.CompetitorQuote{}
	}
	return quotes
}

func bulkRow(product *domain.Product, result domain.PricingResult) *domain.BulkPricing {
	change := result.RecommendedPrice - result.CurrentPrice

	var changePercent float64
	if result.CurrentPrice != 0 {
		changePercent = change / result.CurrentPrice * 100
	}

	return &domain.BulkPricing{
		ProductID:          product.ProductID,
		ProductName:        product.Name,
		CurrentPrice:       result.CurrentPrice,
		RecommendedPrice:   result.RecommendedPrice,
		PriceChange:        change,
		PriceChangePercent: changePercent,
		Confidence:         result.Confidence,
		Method:             result.Method,
		MarginPercent:      result.Factors.MarginPercent,
	}
}
