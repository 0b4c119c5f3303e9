package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func dailySeries(values ...float64) []domain.StockObservation {
	obs := make([]domain.StockObservation, len(values))
	for i, v := range values {
		obs[i] = domain.StockObservation{Date: baseDate.AddDate(0, 0, i), Balance: v}
	}
	return obs
}

func decliningSeries(n int, start, step float64) []domain.StockObservation {
	values := make([]float64, n)
	for i := range values {
		values[i] = start - step*float64(i)
	}
	return dailySeries(values...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type spyTier struct {
	method  domain.ForecastMethod
	min     int
	calls   int
	err     error
	panics  bool
	outcome domain.DepletionResult
}

func (s *spyTier) Method() domain.ForecastMethod { return s.method }

func (s *spyTier) MinObservations() int { return s.min }

func (s *spyTier) Attempt(in Input) (domain.DepletionResult, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return domain.DepletionResult{}, fail(s.method, s.err)
	}
	res := s.outcome
	res.Method = s.method
	return res, nil
}

func TestForecaster_LinearFallbackForShortHistory(t *testing.T) {
	obs := dailySeries(100, 90, 80, 70)
	now := obs[len(obs)-1].Date
	f := NewForecaster(WithClock(fixedClock(now)))

	res := f.Predict(context.Background(), obs, domain.ProductContext{ProductID: "p1", CurrentStock: 70, MinStock: 0})

	require.True(t, res.Success)
	assert.Equal(t, domain.MethodLinear, res.Method)
	require.NotNil(t, res.DaysRemaining)
	assert.Equal(t, 7, res.DaysRemaining.Days)
	require.NotNil(t, res.DepletionDate)
	assert.Equal(t, now.AddDate(0, 0, 7), *res.DepletionDate)
	assert.Equal(t, 0.5, res.Confidence)
	require.NotNil(t, res.AvgDailyConsumption)
	assert.InDelta(t, 10.0, *res.AvgDailyConsumption, 1e-9)
}

func TestForecaster_FlatStockNeverDepletes(t *testing.T) {
	obs := dailySeries(50, 50, 50, 50)
	f := NewForecaster(WithClock(fixedClock(obs[3].Date)))

	res := f.Predict(context.Background(), obs, domain.ProductContext{CurrentStock: 50, MinStock: 50})

	require.True(t, res.Success)
	assert.Equal(t, domain.MethodLinear, res.Method)
	require.NotNil(t, res.DaysRemaining)
	assert.True(t, res.DaysRemaining.Infinite)
	assert.Nil(t, res.DepletionDate)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestForecaster_InsufficientData(t *testing.T) {
	f := NewForecaster()

	for name, obs := range map[string][]domain.StockObservation{
		"empty":  nil,
		"single": dailySeries(10),
	} {
		t.Run(name, func(t *testing.T) {
			res := f.Predict(context.Background(), obs, domain.ProductContext{CurrentStock: 10})
			assert.False(t, res.Success)
			assert.Nil(t, res.DepletionDate)
			assert.Nil(t, res.DaysRemaining)
			assert.Zero(t, res.Confidence)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestForecaster_SkipsModelTiersBelowMinimum(t *testing.T) {
	model := &spyTier{method: domain.MethodDecomposition, min: MinModelObservations}
	f := NewForecaster(WithTiers(model, LinearTier{}))

	res := f.Predict(context.Background(), decliningSeries(6, 100, 5), domain.ProductContext{CurrentStock: 75})

	require.True(t, res.Success)
	assert.Equal(t, domain.MethodLinear, res.Method)
	assert.Zero(t, model.calls)
}

func TestForecaster_FallsThroughInOrder(t *testing.T) {
	first := &spyTier{method: domain.MethodDecomposition, err: domain.ErrNumericInstability}
	second := &spyTier{method: domain.MethodARIMA, outcome: domain.DepletionResult{Success: true, Confidence: 0.8}}
	third := &spyTier{method: domain.MethodLinear}
	f := NewForecaster(WithTiers(first, second, third))

	res := f.Predict(context.Background(), decliningSeries(10, 100, 2), domain.ProductContext{})

	assert.Equal(t, domain.MethodARIMA, res.Method)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls)
}

func TestForecaster_AllTiersFail(t *testing.T) {
	f := NewForecaster(WithTiers(
		&spyTier{method: domain.MethodARIMA, err: domain.ErrNumericInstability},
		&spyTier{method: domain.MethodLinear, err: domain.ErrInsufficientData},
	))

	res := f.Predict(context.Background(), decliningSeries(10, 100, 2), domain.ProductContext{})

	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrInsufficientData.Error(), res.Error)
}

func TestForecaster_RecoversFromPanics(t *testing.T) {
	f := NewForecaster(WithTiers(&spyTier{method: domain.MethodARIMA, panics: true}))

	var res domain.DepletionResult
	assert.NotPanics(t, func() {
		res = f.Predict(context.Background(), decliningSeries(10, 100, 2), domain.ProductContext{})
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
}

func TestForecaster_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewForecaster().Predict(ctx, decliningSeries(10, 100, 2), domain.ProductContext{})

	assert.False(t, res.Success)
	assert.Equal(t, context.Canceled.Error(), res.Error)
}

func TestForecaster_DoesNotReorderInput(t *testing.T) {
	obs := dailySeries(100, 90, 80, 70)
	obs[0], obs[3] = obs[3], obs[0]
	snapshot := append([]domain.StockObservation(nil), obs...)

	f := NewForecaster(WithClock(fixedClock(baseDate.AddDate(0, 0, 3))))
	res := f.Predict(context.Background(), obs, domain.ProductContext{CurrentStock: 70})

	assert.Equal(t, snapshot, obs)
	require.True(t, res.Success)
	assert.Equal(t, 7, res.DaysRemaining.Days)
}

func TestForecaster_Idempotent(t *testing.T) {
	obs := decliningSeries(30, 200, 4)
	f := NewForecaster(WithClock(fixedClock(obs[len(obs)-1].Date)))
	product := domain.ProductContext{ProductID: "p1", CurrentStock: 84, MinStock: 10}

	first := f.Predict(context.Background(), obs, product)
	second := f.Predict(context.Background(), obs, product)

	assert.Equal(t, first, second)
}

func TestAutoregressiveTier_SteadyDecline(t *testing.T) {
	obs := decliningSeries(30, 295, 5)
	now := obs[len(obs)-1].Date
	in := Input{
		Observations: obs,
		Product:      domain.ProductContext{CurrentStock: 150, MinStock: 20},
		Now:          now,
	}

	res, err := AutoregressiveTier{}.Attempt(in)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.MethodARIMA, res.Method)
	require.NotNil(t, res.DaysRemaining)
	assert.Equal(t, 26, res.DaysRemaining.Days)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Len(t, res.ForecastData, forecastPreviewDays)
	assert.Equal(t, now.AddDate(0, 0, 1), res.ForecastData[0].Date)
	assert.InDelta(t, 145.0, res.ForecastData[0].ProjectedStock, 1e-9)
}

func TestAutoregressiveTier_NoDepletionWithinHorizon(t *testing.T) {
	obs := decliningSeries(20, 100, 1)
	in := Input{
		Observations: obs,
		Product:      domain.ProductContext{CurrentStock: 10000, MinStock: 0},
		Now:          obs[len(obs)-1].Date,
	}

	res, err := AutoregressiveTier{}.Attempt(in)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, HorizonDays, res.DaysRemaining.Days)
	assert.Equal(t, 0.7, res.Confidence)
	assert.Nil(t, res.DepletionDate)
	assert.Equal(t, "No depletion expected in next 90 days", res.Message)
}

func TestAutoregressiveTier_RejectsExplosiveFit(t *testing.T) {
	values := []float64{100}
	step := 1.0
	for i := 0; i < 10; i++ {
		step *= 2
		values = append(values, values[len(values)-1]-step)
	}

	_, err := AutoregressiveTier{}.Attempt(Input{Observations: dailySeries(values...)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNumericInstability))
}

func TestDecompositionTier_SteadyDecline(t *testing.T) {
	obs := decliningSeries(30, 295, 5)
	now := obs[len(obs)-1].Date
	in := Input{
		Observations: obs,
		Product:      domain.ProductContext{CurrentStock: 150, MinStock: 20},
		Now:          now,
	}

	res, err := DecompositionTier{}.Attempt(in)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.MethodDecomposition, res.Method)
	require.NotNil(t, res.DaysRemaining)
	assert.InDelta(t, 26, res.DaysRemaining.Days, 1)
	assert.GreaterOrEqual(t, res.Confidence, 0.3)
	assert.LessOrEqual(t, res.Confidence, 0.9)
}

func TestDecompositionTier_NeedsSevenDays(t *testing.T) {
	_, err := DecompositionTier{}.Attempt(Input{Observations: decliningSeries(5, 100, 1)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestForecaster_DefaultCascadeUsesDecomposition(t *testing.T) {
	obs := decliningSeries(30, 295, 5)
	f := NewForecaster(WithClock(fixedClock(obs[len(obs)-1].Date)))

	res := f.Predict(context.Background(), obs, domain.ProductContext{CurrentStock: 150, MinStock: 20})

	require.True(t, res.Success)
	assert.Equal(t, domain.MethodDecomposition, res.Method)
}

func TestForecastConfidence(t *testing.T) {
	assert.Equal(t, 0.3, forecastConfidence([]float64{0, 0, 0}))
	assert.Equal(t, 0.9, forecastConfidence([]float64{-2, -2, -2}))
	assert.Equal(t, 0.3, forecastConfidence([]float64{-10, 10, -1}))
}
