package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/rs/zerolog/log"
)

// Forecaster runs an ordered list of tiers and returns the first successful result.
// A Forecaster holds no per-request state and is safe for concurrent use.
type Forecaster struct {
	tiers []Tier
	now   func() time.Time
}

// Option configures a Forecaster
type Option func(*Forecaster)

// WithClock overrides the time source used for days-remaining arithmetic.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) {
		f.now = now
	}
}

// WithTiers replaces the default cascade.
func WithTiers(tiers ...Tier) Option {
	return func(f *Forecaster) {
		f.tiers = tiers
	}
}

// DefaultTiers is decomposition, then autoregressive, then linear.
func DefaultTiers() []Tier {
	return []Tier{
		DecompositionTier{Horizon: HorizonDays},
		AutoregressiveTier{Horizon: HorizonDays},
		LinearTier{},
	}
}

// NewForecaster creates a forecaster with the default cascade
func NewForecaster(opts ...Option) *Forecaster {
	f := &Forecaster{
		tiers: DefaultTiers(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Predict estimates when product stock reaches its minimum level. Tiers requiring more
// observations than available are skipped; a failing tier falls through to the next one.
// Failures never escape: they are reported as a result with Success=false.
func (f *Forecaster) Predict(ctx context.Context, observations []domain.StockObservation, product domain.ProductContext) (result domain.DepletionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("product_id", product.ProductID).Msg("forecast: prediction panicked")
			result = domain.FailedDepletion(fmt.Errorf("prediction failed: %v", r))
		}
	}()

	in := Input{
		Observations: sortedObservations(observations),
		Product:      product,
		Now:          f.now(),
	}

	var lastErr error
	for _, tier := range f.tiers {
		if len(in.Observations) < tier.MinObservations() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.FailedDepletion(err)
		}

		res, err := tier.Attempt(in)
		if err == nil {
			return res
		}

		log.Debug().
			Err(err).
			Str("product_id", product.ProductID).
			Str("tier", string(tier.Method())).
			Msg("forecast: tier failed, falling back")
		lastErr = err
	}

	if lastErr == nil {
		lastErr = domain.ErrInsufficientData
	}
	var tf *TierFailure
	if errors.As(lastErr, &tf) {
		lastErr = tf.Err
	}
	return domain.FailedDepletion(lastErr)
}

func sortedObservations(obs []domain.StockObservation) []domain.StockObservation {
	sorted := make([]domain.StockObservation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}
