package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/timeseries"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
)

const (
	linearConfidence       = 0.5
	notDepletingConfidence = 0.3
)

// LinearTier extrapolates the average consumption rate of depleting intervals.
type LinearTier struct{}

func (LinearTier) Method() domain.ForecastMethod { return domain.MethodLinear }

func (LinearTier) MinObservations() int { return 0 }

func (t LinearTier) Attempt(in Input) (domain.DepletionResult, error) {
	if len(in.Observations) < 2 {
		return domain.DepletionResult{}, fail(t.Method(), domain.ErrInsufficientData)
	}

	var rates []float64
	for i := 1; i < len(in.Observations); i++ {
		prev, cur := in.Observations[i-1], in.Observations[i]
		days := timeseries.DaysBetween(prev.Date, cur.Date)
		if days > 0 {
			rates = append(rates, (cur.Balance-prev.Balance)/float64(days))
		}
	}
	if len(rates) == 0 {
		return domain.DepletionResult{}, fail(t.Method(), fmt.Errorf("%w: no valid stock changes found", domain.ErrInsufficientData))
	}

	var depleting []float64
	for _, r := range rates {
		if r < 0 {
			depleting = append(depleting, r)
		}
	}
	if len(depleting) == 0 {
		return domain.DepletionResult{
			Success:       true,
			DaysRemaining: domain.InfiniteDays(),
			Confidence:    notDepletingConfidence,
			Method:        t.Method(),
			Message:       "Stock is not depleting",
		}, nil
	}

	consumption := -formulas.Mean(depleting)
	days := int(math.Max(0, math.Floor((in.Product.CurrentStock-in.Product.MinStock)/consumption)))
	depletionDate := timeseries.Day(in.Now).AddDate(0, 0, days)

	return domain.DepletionResult{
		Success:             true,
		DepletionDate:       &depletionDate,
		DaysRemaining:       domain.FiniteDays(days),
		Confidence:          linearConfidence,
		Method:              t.Method(),
		AvgDailyConsumption: &consumption,
	}, nil
}
