package pricing

import (
	"testing"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatures_TrailingWindow(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18}
	quantities := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	product := domain.ProductContext{CostPrice: 8}

	features := BuildFeatures(product, salesSeries(prices, quantities), nil)

	require.Len(t, features, 9)

	first := features[0]
	assert.Equal(t, 10.0, first.AvgPrice7d)
	assert.Equal(t, 1.0, first.AvgQuantity7d)
	assert.Zero(t, first.PriceTrend7d)

	eighth := features[7]
	assert.InDelta(t, 13.0, eighth.AvgPrice7d, 1e-9)
	assert.InDelta(t, 4.0, eighth.AvgQuantity7d, 1e-9)
	assert.Equal(t, 6.0, eighth.PriceTrend7d)

	assert.Equal(t, 136.0, features[7].Revenue)
	assert.Equal(t, 9.0, features[7].Margin)
	assert.InDelta(t, 9.0/17*100, features[7].MarginPercent, 1e-9)
}

func TestBuildFeatures_Calendar(t *testing.T) {
	// salesStart is a Monday
	features := BuildFeatures(domain.ProductContext{}, salesSeries(repeated(5, 7), repeated(1, 7)), nil)

	assert.Equal(t, 0, features[0].DayOfWeek)
	assert.False(t, features[0].IsWeekend)
	assert.Equal(t, 5, features[5].DayOfWeek)
	assert.True(t, features[5].IsWeekend)
	assert.Equal(t, 6, features[6].DayOfWeek)
	assert.Equal(t, 3, features[0].Month)
}

func TestBuildFeatures_Competitors(t *testing.T) {
	sales := salesSeries([]float64{10}, []float64{2})

	without := BuildFeatures(domain.ProductContext{}, sales, nil)[0]
	assert.Equal(t, 10.0, without.MinCompetitorPrice)
	assert.Equal(t, 10.0, without.MaxCompetitorPrice)
	assert.Equal(t, 10.0, without.AvgCompetitorPrice)
	assert.Zero(t, without.PriceVsCompetitors)

	quotes := []domain.CompetitorQuote{{Price: 8}, {Price: 14}}
	with := BuildFeatures(domain.ProductContext{}, sales, quotes)[0]
	assert.Equal(t, 8.0, with.MinCompetitorPrice)
	assert.Equal(t, 14.0, with.MaxCompetitorPrice)
	assert.Equal(t, 11.0, with.AvgCompetitorPrice)
	assert.Equal(t, -1.0, with.PriceVsCompetitors)
}

func TestBuildFeatures_ZeroPrice(t *testing.T) {
	f := BuildFeatures(domain.ProductContext{CostPrice: 3}, salesSeries([]float64{0}, []float64{4}), nil)[0]

	assert.Zero(t, f.MarginPercent)
	assert.Equal(t, -3.0, f.Margin)
}

func TestBuildFeatures_SortsByDate(t *testing.T) {
	sales := salesSeries([]float64{10, 20}, []float64{1, 2})
	sales[0], sales[1] = sales[1], sales[0]

	features := BuildFeatures(domain.ProductContext{}, sales, nil)

	assert.Equal(t, 10.0, features[0].Price)
	assert.Equal(t, 20.0, features[1].Price)
}
