// Package pricing recommends selling prices from sales history and competitor quotes.
package pricing

import (
	"sort"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
)

const trailingWindow = 7

// Feature is the engineered view of one sale
type Feature struct {
	Price              float64
	QuantitySold       float64
	CostPrice          float64
	DayOfWeek          int
	Month              int
	IsWeekend          bool
	AvgPrice7d         float64
	AvgQuantity7d      float64
	PriceTrend7d       float64
	MinCompetitorPrice float64
	MaxCompetitorPrice float64
	AvgCompetitorPrice float64
	PriceVsCompetitors float64
	Revenue            float64
	Margin             float64
	MarginPercent      float64
}

// modelInputs is the column vector the ensemble is trained on
func (f Feature) modelInputs() []float64 {
	weekend := 0.0
	if f.IsWeekend {
		weekend = 1
	}
	return []float64{
		f.CostPrice,
		float64(f.DayOfWeek),
		float64(f.Month),
		weekend,
		f.AvgPrice7d,
		f.AvgQuantity7d,
		f.PriceTrend7d,
		f.MinCompetitorPrice,
		f.MaxCompetitorPrice,
		f.AvgCompetitorPrice,
	}
}

// unitRevenue is the training target, revenue per unit with a +1 guard on quantity
func (f Feature) unitRevenue() float64 {
	return f.Revenue / (f.QuantitySold + 1)
}

// BuildFeatures produces one Feature per sale in date order. Without quotes the competitor
// columns mirror the sale's own price.
func BuildFeatures(product domain.ProductContext, sales []domain.SalesObservation, quotes []domain.CompetitorQuote) []Feature {
	sorted := sortedSales(sales)
	features := make([]Feature, 0, len(sorted))

	quotePrices := make([]float64, len(quotes))
	for i, q := range quotes {
		quotePrices[i] = q.Price
	}

	for i, s := range sorted {
		dow := (int(s.Date.Weekday()) + 6) % 7
		f := Feature{
			Price:        s.UnitPrice,
			QuantitySold: s.Quantity,
			CostPrice:    product.CostPrice,
			DayOfWeek:    dow,
			Month:        int(s.Date.Month()),
			IsWeekend:    dow >= 5,
		}

		if i >= trailingWindow {
			window := sorted[i-trailingWindow : i]
			prices := make([]float64, len(window))
			quantities := make([]float64, len(window))
			for j, w := range window {
				prices[j] = w.UnitPrice
				quantities[j] = w.Quantity
			}
			f.AvgPrice7d = formulas.Mean(prices)
			f.AvgQuantity7d = formulas.Mean(quantities)
			f.PriceTrend7d = prices[len(prices)-1] - prices[0]
		} else {
			f.AvgPrice7d = f.Price
			f.AvgQuantity7d = f.QuantitySold
		}

		if len(quotePrices) > 0 {
			f.MinCompetitorPrice = formulas.Min(quotePrices)
			f.MaxCompetitorPrice = formulas.Max(quotePrices)
			f.AvgCompetitorPrice = formulas.Mean(quotePrices)
			f.PriceVsCompetitors = f.Price - f.AvgCompetitorPrice
		} else {
			f.MinCompetitorPrice = f.Price
			f.MaxCompetitorPrice = f.Price
			f.AvgCompetitorPrice = f.Price
		}

		f.Revenue = f.Price * f.QuantitySold
		f.Margin = f.Price - f.CostPrice
		if f.Price > 0 {
			f.MarginPercent = f.Margin / f.Price * 100
		}

		features = append(features, f)
	}

	return features
}

func sortedSales(sales []domain.SalesObservation) []domain.SalesObservation {
	sorted := make([]domain.SalesObservation, len(sales))
	copy(sorted, sales)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}
