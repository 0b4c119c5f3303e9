package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateQuantity(t *testing.T) {
	tests := []struct {
		name       string
		price      float64
		prices     []float64
		quantities []float64
		expected   float64
	}{
		{"no history", 10, nil, nil, 1},
		{"short history uses mean", 10, []float64{5, 6}, []float64{4, 8}, 6},
		{"too few valid pairs uses mean", 10, []float64{5, 0, 6, 7}, []float64{4, 8, 0, 4}, 4},
		{"linear fit", 8, []float64{5, 6, 7}, []float64{20, 18, 16}, 14},
		{"clamped at zero", 20, []float64{5, 6, 7}, []float64{20, 18, 16}, 0},
		{"no price variation", 12, []float64{10, 10, 10}, []float64{3, 5, 7}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EstimateQuantity(tt.price, tt.prices, tt.quantities), 1e-9)
		})
	}
}

func TestFitDemand_Identification(t *testing.T) {
	assert.False(t, FitDemand([]float64{10, 10, 10}, []float64{3, 5, 7}).Identified)
	assert.False(t, FitDemand([]float64{1, 2}, []float64{3, 5}).Identified)

	curve := FitDemand([]float64{5, 6, 7}, []float64{20, 18, 16})
	assert.True(t, curve.Identified)
	assert.InDelta(t, -2.0, curve.Slope, 1e-9)
	assert.InDelta(t, 30.0, curve.Intercept, 1e-9)
}
