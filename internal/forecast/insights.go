package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
)

const (
	insightWindow        = 7
	seasonalityMinPoints = 14
	trendThreshold       = 5.0
	weeklyVariationRatio = 0.2
)

// Analyze derives qualitative observations about a stock series. It needs at least two
// observations and never modifies its input.
func Analyze(observations []domain.StockObservation) []domain.Insight {
	insights := []domain.Insight{}
	if len(observations) < 2 {
		return insights
	}

	sorted := sortedObservations(observations)
	recent := sorted
	if len(recent) > insightWindow {
		recent = recent[len(recent)-insightWindow:]
	}

	recentBalances := make([]float64, len(recent))
	for i, o := range recent {
		recentBalances[i] = o.Balance
	}
	trend := formulas.Mean(formulas.Diff(recentBalances))

	switch {
	case trend < -trendThreshold:
		insights = append(insights, domain.Insight{
			Type:    domain.InsightWarning,
			Message: "Rapid stock depletion detected in last 7 days",
		})
	case trend > trendThreshold:
		insights = append(insights, domain.Insight{
			Type:    domain.InsightInfo,
			Message: "Stock levels increasing recently",
		})
	}

	if len(sorted) >= seasonalityMinPoints && hasWeeklyPattern(sorted) {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightInfo,
			Message: "Weekly consumption pattern detected",
		})
	}

	if len(sorted) >= insightWindow {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightMetric,
			Message: fmt.Sprintf("Average daily stock change: %.1f units", formulas.Round(math.Abs(trend), 1)),
		})
	}

	return insights
}

// hasWeeklyPattern compares per-weekday mean balances: a spread above 20% of their
// mean counts as a weekly pattern.
func hasWeeklyPattern(obs []domain.StockObservation) bool {
	var sums [7]float64
	var counts [7]int
	for _, o := range obs {
		wd := mondayFirst(o.Date.Weekday())
		sums[wd] += o.Balance
		counts[wd]++
	}

	means := make([]float64, 0, 7)
	for wd := range sums {
		if counts[wd] > 0 {
			means = append(means, sums[wd]/float64(counts[wd]))
		}
	}
	if len(means) < 2 {
		return false
	}

	return formulas.StdDev(means) > formulas.Mean(means)*weeklyVariationRatio
}

// mondayFirst maps time.Weekday onto Monday=0 .. Sunday=6
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
