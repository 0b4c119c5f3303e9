package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/timeseries"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultFinancialDays is the horizon used when a request does not name one.
	DefaultFinancialDays = 30
	// MaxFinancialDays bounds the horizon of a financial projection.
	MaxFinancialDays = 365

	defaultRevenueBase = 10000.0
	defaultExpenseBase = 5000.0
	baseConfidence     = 0.9
	confidenceDecay    = 0.02
	minFinancialConf   = 0.3
	maxFinancialConf   = 0.95
)

// FinancialSeries names which default baseline applies to a sparse series
type FinancialSeries string

const (
	SeriesRevenue  FinancialSeries = "revenue"
	SeriesExpenses FinancialSeries = "expenses"
)

// FinancialPoint is one dated amount of revenue or expenses
type FinancialPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// UnmarshalJSON accepts plain dates as well as RFC 3339 timestamps
func (p *FinancialPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := parseFinancialDate(raw.Date)
	if err != nil {
		return err
	}
	p.Date, p.Value = date, raw.Value
	return nil
}

func parseFinancialDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FinancialDay is one projected day of a combined revenue and expense forecast
type FinancialDay struct {
	Date             string  `json:"date"`
	ForecastRevenue  float64 `json:"forecastRevenue"`
	ForecastExpenses float64 `json:"forecastExpenses"`
	ForecastProfit   float64 `json:"forecastProfit"`
	Confidence       float64 `json:"confidence"`
}

// ProjectSeries extends a dated series days ahead with a least-squares trend line fitted
// against days since the first point. Series shorter than two points project a flat baseline.
func ProjectSeries(points []FinancialPoint, days int, kind FinancialSeries) []float64 {
	if days <= 0 {
		return []float64{}
	}

	projection := make([]float64, days)
	if len(points) < 2 {
		base := defaultRevenueBase
		if kind == SeriesExpenses {
			base = defaultExpenseBase
		}
		for i := range projection {
			projection[i] = base
		}
		return projection
	}

	sorted := append([]FinancialPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first := sorted[0].Date
	x := make([]float64, len(sorted))
	y := make([]float64, len(sorted))
	for i, p := range sorted {
		x[i] = float64(timeseries.DaysBetween(first, p.Date))
		y[i] = p.Value
	}

	intercept, slope := fitTrend(x, y)
	last := x[len(x)-1]
	for i := range projection {
		projection[i] = intercept + slope*(last+float64(i+1))
	}
	return projection
}

// fitTrend falls back to a flat mean line when every point shares one date
func fitTrend(x, y []float64) (intercept, slope float64) {
	if formulas.Max(x) == formulas.Min(x) {
		return formulas.Mean(y), 0
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	if !formulas.IsFinite(intercept) || !formulas.IsFinite(slope) {
		return formulas.Mean(y), 0
	}
	return intercept, slope
}

// FinancialConfidence decays exponentially with the distance of the projected day
func FinancialConfidence(dayIndex int) float64 {
	c := baseConfidence * math.Exp(-confidenceDecay*float64(dayIndex))
	return formulas.Clamp(c, minFinancialConf, maxFinancialConf)
}

// FinancialForecast projects revenue and expenses from start+1 onwards and derives profit.
// Negative revenue and expense projections are floored at zero; profit is not.
func FinancialForecast(revenue, expenses []FinancialPoint, days int, start time.Time) []FinancialDay {
	revenueForecast := ProjectSeries(revenue, days, SeriesRevenue)
	expenseForecast := ProjectSeries(expenses, days, SeriesExpenses)

	out := make([]FinancialDay, len(revenueForecast))
	for i := range out {
		r, e := revenueForecast[i], expenseForecast[i]
		out[i] = FinancialDay{
			Date:             timeseries.Day(start).AddDate(0, 0, i+1).Format("2006-01-02"),
			ForecastRevenue:  math.Max(0, r),
			ForecastExpenses: math.Max(0, e),
			ForecastProfit:   r - e,
			Confidence:       FinancialConfidence(i),
		}
	}
	return out
}
