// Package forecast predicts when a product's stock falls below its minimum level.
package forecast

import (
	"fmt"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
)

const (
	// MinModelObservations is the fewest observations the model-based tiers accept.
	MinModelObservations = 7
	// HorizonDays is how far ahead the model-based tiers project.
	HorizonDays = 90
	// forecastPreviewDays is how many projected points are returned with a result.
	forecastPreviewDays = 30
)

// Input is everything a tier needs for one prediction
type Input struct {
	// Observations are sorted ascending by date.
	Observations []domain.StockObservation
	Product      domain.ProductContext
	Now          time.Time
}

// Tier is one forecasting method in the fallback cascade.
type Tier interface {
	Method() domain.ForecastMethod
	// MinObservations is the minimum number of observations the tier is applicable to.
	MinObservations() int
	// Attempt returns a successful result or a *TierFailure.
	Attempt(in Input) (domain.DepletionResult, error)
}

// TierFailure records why a tier could not produce a forecast
type TierFailure struct {
	Method domain.ForecastMethod
	Err    error
}

func (f *TierFailure) Error() string {
	return fmt.Sprintf("%s tier: %v", f.Method, f.Err)
}

func (f *TierFailure) Unwrap() error {
	return f.Err
}

func fail(method domain.ForecastMethod, err error) *TierFailure {
	return &TierFailure{Method: method, Err: err}
}
