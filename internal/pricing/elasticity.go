package pricing

import (
	"math"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
)

const (
	// DefaultElasticity is reported when history cannot support an estimate.
	DefaultElasticity = -1.0
	// MinElasticitySales is the fewest sales an estimate is attempted on.
	MinElasticitySales = 5

	minElasticityPairs = 3
	maxPriceChange     = 0.5
	maxQuantityChange  = 2.0
	minElasticity      = -5.0
	maxElasticity      = 0.0
	inelasticThreshold = -0.5
	moderateThreshold  = -1.5
)

// Elasticity estimates price elasticity of demand as the mean ratio of period-over-period
// quantity change to price change. Periods without a price move, with an extreme move, or
// with undefined changes are ignored. The result is always within [-5, 0].
func Elasticity(sales []domain.SalesObservation) float64 {
	if len(sales) < MinElasticitySales {
		return DefaultElasticity
	}

	sorted := sortedSales(sales)
	prices := make([]float64, len(sorted))
	quantities := make([]float64, len(sorted))
	for i, s := range sorted {
		prices[i] = s.UnitPrice
		quantities[i] = s.Quantity
	}

	priceChanges := formulas.PctChange(prices)
	quantityChanges := formulas.PctChange(quantities)

	var ratios []float64
	for i, pc := range priceChanges {
		qc := quantityChanges[i]
		if !formulas.IsFinite(pc) || !formulas.IsFinite(qc) {
			continue
		}
		if pc == 0 || math.Abs(pc) >= maxPriceChange || math.Abs(qc) >= maxQuantityChange {
			continue
		}
		ratios = append(ratios, qc/pc)
	}

	if len(ratios) < minElasticityPairs {
		return DefaultElasticity
	}

	return formulas.Clamp(formulas.Mean(ratios), minElasticity, maxElasticity)
}

// InterpretElasticity describes how strongly demand reacts to price
func InterpretElasticity(e float64) string {
	switch {
	case e > inelasticThreshold:
		return "Inelastic - Price changes have minimal impact on demand"
	case e > moderateThreshold:
		return "Moderately elastic - Price changes moderately affect demand"
	default:
		return "Highly elastic - Price changes significantly impact demand"
	}
}
