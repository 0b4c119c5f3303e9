package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/timeseries"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
)

const (
	noDepletionConfidence = 0.7
	minModelConfidence    = 0.3
	maxModelConfidence    = 0.9
)

// depletionFromChanges projects stock forward from the product's current level using
// forecast day-over-day changes. changes[k] is the change on start+k+1 days.
func depletionFromChanges(changes []float64, start time.Time, in Input, method domain.ForecastMethod) (domain.DepletionResult, error) {
	if len(changes) == 0 {
		return domain.DepletionResult{}, fail(method, domain.ErrInsufficientData)
	}
	if !formulas.AllFinite(changes) {
		return domain.DepletionResult{}, fail(method, fmt.Errorf("%w: non-finite forecast", domain.ErrNumericInstability))
	}

	cumulative := formulas.CumSum(changes)
	projected := make([]domain.ProjectedPoint, len(changes))
	depletionIdx := -1
	for i, c := range cumulative {
		projected[i] = domain.ProjectedPoint{
			Date:           timeseries.Day(start).AddDate(0, 0, i+1),
			ProjectedStock: in.Product.CurrentStock + c,
		}
		if depletionIdx < 0 && projected[i].ProjectedStock <= in.Product.MinStock {
			depletionIdx = i
		}
	}

	preview := projected
	if len(preview) > forecastPreviewDays {
		preview = preview[:forecastPreviewDays]
	}

	if depletionIdx < 0 {
		return domain.DepletionResult{
			Success:       true,
			DaysRemaining: domain.FiniteDays(len(changes)),
			Confidence:    noDepletionConfidence,
			Method:        method,
			Message:       fmt.Sprintf("No depletion expected in next %d days", len(changes)),
			ForecastData:  preview,
		}, nil
	}

	depletionDate := projected[depletionIdx].Date
	days := timeseries.DaysBetween(in.Now, depletionDate)
	if days < 0 {
		days = 0
	}

	return domain.DepletionResult{
		Success:       true,
		DepletionDate: &depletionDate,
		DaysRemaining: domain.FiniteDays(days),
		Confidence:    forecastConfidence(changes),
		Method:        method,
		ForecastData:  preview,
	}, nil
}

// forecastConfidence is 1 - coefficient of variation of the forecast, bounded to [0.3, 0.9].
func forecastConfidence(forecast []float64) float64 {
	mean := formulas.Mean(forecast)
	if mean == 0 {
		return minModelConfidence
	}

	c := 1 - formulas.StdDev(forecast)/math.Abs(mean)
	return formulas.Round(formulas.Clamp(c, minModelConfidence, maxModelConfidence), 2)
}

func balances(obs []domain.StockObservation) []timeseries.Point {
	points := make([]timeseries.Point, len(obs))
	for i, o := range obs {
		points[i] = timeseries.Point{Date: o.Date, Value: o.Balance}
	}
	return points
}
