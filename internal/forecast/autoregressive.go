package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/timeseries"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AutoregressiveTier fits an AR(1) model with intercept to the first differences of the
// daily balance series, i.e. an ARIMA(1,1,0).
type AutoregressiveTier struct {
	Horizon int
}

func (AutoregressiveTier) Method() domain.ForecastMethod { return domain.MethodARIMA }

func (AutoregressiveTier) MinObservations() int { return MinModelObservations }

func (t AutoregressiveTier) Attempt(in Input) (domain.DepletionResult, error) {
	series := timeseries.Prepare(balances(in.Observations))
	diffs := formulas.Diff(timeseries.Values(series))
	if len(diffs) < 3 {
		return domain.DepletionResult{}, fail(t.Method(), domain.ErrInsufficientData)
	}

	intercept, phi, err := fitAR1(diffs)
	if err != nil {
		return domain.DepletionResult{}, fail(t.Method(), err)
	}

	changes := make([]float64, horizon(t.Horizon))
	last := diffs[len(diffs)-1]
	for i := range changes {
		last = intercept + phi*last
		changes[i] = last
	}

	return depletionFromChanges(changes, series[len(series)-1].Date, in, t.Method())
}

// fitAR1 estimates d[t] = c + phi*d[t-1] by ordinary least squares.
func fitAR1(d []float64) (c, phi float64, err error) {
	x := d[:len(d)-1]
	y := d[1:]

	// constant lagged values leave phi unidentified; treat as white noise around the mean
	if floats.Max(x)-floats.Min(x) == 0 {
		return formulas.Mean(y), 0, nil
	}

	c, phi = stat.LinearRegression(x, y, nil, false)
	if !formulas.IsFinite(c) || !formulas.IsFinite(phi) {
		return 0, 0, fmt.Errorf("%w: non-finite AR coefficients", domain.ErrNumericInstability)
	}
	if math.Abs(phi) >= 1 {
		return 0, 0, fmt.Errorf("%w: non-stationary AR coefficient %.3f", domain.ErrNumericInstability, phi)
	}

	return c, phi, nil
}

func horizon(h int) int {
	if h <= 0 {
		return HorizonDays
	}
	return h
}
