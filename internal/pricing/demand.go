package pricing

import (
	"math"

	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const minDemandPoints = 3

// DemandCurve is a linear demand model q = Slope*p + Intercept.
// Identified is false when the history could not pin down a price response, in which case
// the curve is the flat mean quantity.
type DemandCurve struct {
	Slope      float64
	Intercept  float64
	Identified bool
}

// Quantity evaluates the curve at price, never below zero
func (c DemandCurve) Quantity(price float64) float64 {
	return math.Max(0, c.Slope*price+c.Intercept)
}

// FitDemand fits a demand curve to pairs where both price and quantity are positive.
func FitDemand(prices, quantities []float64) DemandCurve {
	if len(prices) < minDemandPoints {
		if len(quantities) == 0 {
			return DemandCurve{Intercept: 1}
		}
		return DemandCurve{Intercept: formulas.Mean(quantities)}
	}

	var ps, qs []float64
	for i := range prices {
		if i < len(quantities) && prices[i] > 0 && quantities[i] > 0 {
			ps = append(ps, prices[i])
			qs = append(qs, quantities[i])
		}
	}
	if len(ps) < minDemandPoints {
		return DemandCurve{Intercept: formulas.Mean(quantities)}
	}

	if floats.Max(ps)-floats.Min(ps) == 0 {
		return DemandCurve{Intercept: formulas.Mean(qs)}
	}

	intercept, slope := stat.LinearRegression(ps, qs, nil, false)
	if !formulas.IsFinite(intercept) || !formulas.IsFinite(slope) {
		return DemandCurve{Intercept: formulas.Mean(qs)}
	}

	return DemandCurve{Slope: slope, Intercept: intercept, Identified: true}
}

// EstimateQuantity predicts the quantity sold at price from historical price/quantity pairs.
func EstimateQuantity(price float64, prices, quantities []float64) float64 {
	return FitDemand(prices, quantities).Quantity(price)
}
