package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"github.com/rs/zerolog/log"
)

const (
	// MinRegressionSales is the fewest sales the regression tier accepts.
	MinRegressionSales = 10

	simpleConfidence    = 0.3
	quotedConfidence    = 0.7
	unquotedConfidence  = 0.5
	costPlusMarkup      = 1.3
	lowDemandThreshold  = 2.0
	highDemandThreshold = 10.0
	lowDemandFactor     = 0.95
	highDemandFactor    = 1.05
	recentSalesWindow   = 5
	minMarginFactor     = 1.1
	maxIncreaseFactor   = 1.5
	sweepStart          = 0.80
	sweepStep           = 0.05
	sweepCandidates     = 11
	maxStrategies       = 4
	undercutFactor      = 0.95
	safeMarginFactor    = 1.2
	premiumFactor       = 1.1
)

// Optimizer recommends prices. It keeps no state between calls.
type Optimizer struct {
	ensemble EnsembleConfig
}

// NewOptimizer creates an optimizer with the default ensemble configuration
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// WithEnsemble returns a copy of the optimizer using cfg for the regression model
func (o *Optimizer) WithEnsemble(cfg EnsembleConfig) *Optimizer {
	return &Optimizer{ensemble: cfg}
}

// Optimize recommends a price for product. With fewer than MinRegressionSales sales a
// demand heuristic is used; otherwise a fitted demand curve drives a revenue sweep around
// the latest observed price. Failures are reported as Success=false with the current price
// echoed back.
func (o *Optimizer) Optimize(ctx context.Context, product domain.ProductContext, sales []domain.SalesObservation, quotes []domain.CompetitorQuote) (result domain.PricingResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("product_id", product.ProductID).Msg("pricing: optimization panicked")
			result = domain.FailedPricing(product.CurrentPrice, fmt.Errorf("pricing failed: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.FailedPricing(product.CurrentPrice, err)
	}

	sorted := sortedSales(sales)
	if len(sorted) < MinRegressionSales {
		return simplePricing(product, sorted)
	}

	features := BuildFeatures(product, sorted, quotes)
	if len(features) == 0 {
		return simplePricing(product, sorted)
	}

	res, err := o.regressionPricing(ctx, product, sorted, features, quotes)
	if err != nil {
		log.Warn().Err(err).Str("product_id", product.ProductID).Msg("pricing: regression tier failed")
		return domain.FailedPricing(product.CurrentPrice, err)
	}
	return res
}

func (o *Optimizer) regressionPricing(ctx context.Context, product domain.ProductContext, sales []domain.SalesObservation, features []Feature, quotes []domain.CompetitorQuote) (domain.PricingResult, error) {
	x := make([][]float64, len(features))
	y := make([]float64, len(features))
	prices := make([]float64, len(features))
	quantities := make([]float64, len(features))
	for i, f := range features {
		x[i] = f.modelInputs()
		y[i] = f.unitRevenue()
		prices[i] = f.Price
		quantities[i] = f.QuantitySold
	}

	model, err := FitEnsemble(x, y, o.ensemble)
	if err != nil {
		return domain.PricingResult{}, err
	}
	latest := features[len(features)-1]
	unitRevenue := formulas.Round(model.Predict(latest.modelInputs()), 2)

	if err := ctx.Err(); err != nil {
		return domain.PricingResult{}, err
	}

	optimal := latest.Price
	if latest.QuantitySold > 0 {
		optimal = sweepPrice(latest.Price, FitDemand(prices, quantities))
	}
	if !formulas.IsFinite(optimal) {
		return domain.PricingResult{}, fmt.Errorf("%w: non-finite optimal price", domain.ErrNumericInstability)
	}

	bounds := priceBounds(product)
	recommended := formulas.Clamp(formulas.Round(optimal, 2), bounds.MinPrice, bounds.MaxPrice)

	confidence := unquotedConfidence
	var avgQuote *float64
	if len(quotes) > 0 {
		confidence = quotedConfidence
		avg := formulas.Round(latest.AvgCompetitorPrice, 2)
		avgQuote = &avg
	}

	return domain.PricingResult{
		Success:          true,
		CurrentPrice:     product.CurrentPrice,
		RecommendedPrice: recommended,
		Confidence:       confidence,
		Method:           domain.PricingMLRegression,
		Elasticity:       formulas.Round(Elasticity(sales), 2),
		Factors: domain.PricingFactors{
			CostPrice:          product.CostPrice,
			MarginPercent:      marginPercent(recommended, product.CostPrice),
			CompetitorCount:    len(quotes),
			AvgCompetitorPrice: avgQuote,
			ModelUnitRevenue:   &unitRevenue,
		},
		Strategies:  strategies(product, recommended, quotes),
		PriceBounds: bounds,
	}, nil
}

// sweepPrice scans multipliers 0.80..1.30 of the latest price and returns the candidate
// with the highest estimated revenue; the earliest candidate wins ties. An unidentified
// demand curve carries no price signal, so the latest price is kept.
func sweepPrice(latestPrice float64, demand DemandCurve) float64 {
	if !demand.Identified {
		return latestPrice
	}

	best := latestPrice
	bestRevenue := 0.0
	for k := 0; k < sweepCandidates; k++ {
		candidate := latestPrice * (sweepStart + float64(k)*sweepStep)
		revenue := candidate * demand.Quantity(candidate)
		if revenue > bestRevenue {
			best = candidate
			bestRevenue = revenue
		}
	}
	return best
}

// priceBounds keeps at least a 10% margin and at most a 50% increase. When the margin floor
// exceeds the ceiling the ceiling is raised to the floor.
func priceBounds(product domain.ProductContext) domain.PriceBounds {
	lo := formulas.Round(product.CostPrice*minMarginFactor, 2)
	hi := formulas.Round(product.CurrentPrice*maxIncreaseFactor, 2)
	if lo > hi {
		hi = lo
	}
	return domain.PriceBounds{MinPrice: lo, MaxPrice: hi}
}

func strategies(product domain.ProductContext, recommended float64, quotes []domain.CompetitorQuote) []domain.PricingStrategy {
	out := make([]domain.PricingStrategy, 0, maxStrategies)

	if len(quotes) > 0 {
		prices := make([]float64, len(quotes))
		for i, q := range quotes {
			prices[i] = q.Price
		}
		lowest := formulas.Min(prices)
		if recommended < lowest {
			out = append(out, domain.PricingStrategy{
				Name:        "Competitive Advantage",
				Price:       formulas.Round(lowest*undercutFactor, 2),
				Description: "Price below lowest competitor",
			})
		}
		out = append(out, domain.PricingStrategy{
			Name:        "Market Average",
			Price:       formulas.Round(formulas.Mean(prices), 2),
			Description: "Match market average",
		})
	}

	out = append(out,
		domain.PricingStrategy{
			Name:        "Cost Plus 20%",
			Price:       formulas.Round(product.CostPrice*safeMarginFactor, 2),
			Description: "Safe margin pricing",
		},
		domain.PricingStrategy{
			Name:        "Premium Positioning",
			Price:       formulas.Round(recommended*premiumFactor, 2),
			Description: "Higher margin strategy",
		},
	)

	if len(out) > maxStrategies {
		out = out[:maxStrategies]
	}
	return out
}

// simplePricing is the heuristic used when history is too short to fit a demand curve.
// Its bounds are the standard ones widened to contain the heuristic price.
func simplePricing(product domain.ProductContext, sales []domain.SalesObservation) domain.PricingResult {
	var recommended float64
	if len(sales) == 0 {
		recommended = product.CostPrice * costPlusMarkup
	} else {
		recent := sales
		if len(recent) > recentSalesWindow {
			recent = recent[len(recent)-recentSalesWindow:]
		}
		quantities := make([]float64, len(recent))
		for i, s := range recent {
			quantities[i] = s.Quantity
		}

		avg := formulas.Mean(quantities)
		switch {
		case avg < lowDemandThreshold:
			recommended = product.CurrentPrice * lowDemandFactor
		case avg > highDemandThreshold:
			recommended = product.CurrentPrice * highDemandFactor
		default:
			recommended = product.CurrentPrice
		}
	}
	recommended = formulas.Round(recommended, 2)

	bounds := priceBounds(product)
	bounds.MinPrice = math.Min(bounds.MinPrice, recommended)
	bounds.MaxPrice = math.Max(bounds.MaxPrice, recommended)

	return domain.PricingResult{
		Success:          true,
		CurrentPrice:     product.CurrentPrice,
		RecommendedPrice: recommended,
		Confidence:       simpleConfidence,
		Method:           domain.PricingSimple,
		Elasticity:       DefaultElasticity,
		Factors: domain.PricingFactors{
			CostPrice:     product.CostPrice,
			MarginPercent: marginPercent(recommended, product.CostPrice),
		},
		Strategies:  []domain.PricingStrategy{},
		PriceBounds: bounds,
	}
}

func marginPercent(price, cost float64) float64 {
	if price <= 0 {
		return 0
	}
	return formulas.Round((price-cost)/price*100, 2)
}
