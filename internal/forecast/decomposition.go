package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/internal/timeseries"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultChangepoints     = 25
	changepointRange        = 0.8
	defaultChangepointPrior = 0.05
	seasonalityPriorScale   = 10.0
	weeklyPeriod            = 7.0
	weeklyFourierOrder      = 3
	minResidualVariance     = 1e-6
	numericalJitter         = 1e-9
)

// DecompositionTier fits an additive trend + weekly seasonality model. The trend is piecewise
// linear with ridge-penalised slope changes, so a small ChangepointPrior keeps it smooth.
type DecompositionTier struct {
	Horizon          int
	Changepoints     int
	ChangepointPrior float64
}

func (DecompositionTier) Method() domain.ForecastMethod { return domain.MethodDecomposition }

func (DecompositionTier) MinObservations() int { return MinModelObservations }

func (t DecompositionTier) Attempt(in Input) (domain.DepletionResult, error) {
	series := timeseries.Prepare(balances(in.Observations))
	if len(series) < MinModelObservations {
		return domain.DepletionResult{}, fail(t.Method(), domain.ErrInsufficientData)
	}

	model, err := t.fit(timeseries.Values(series))
	if err != nil {
		return domain.DepletionResult{}, fail(t.Method(), err)
	}

	n := len(series)
	h := horizon(t.Horizon)
	changes := make([]float64, h)
	prev := model.predict(n - 1)
	for i := 0; i < h; i++ {
		next := model.predict(n + i)
		changes[i] = next - prev
		prev = next
	}

	return depletionFromChanges(changes, series[n-1].Date, in, t.Method())
}

type decompositionModel struct {
	n            int
	scale        float64
	changepoints []float64
	beta         []float64
}

func (t DecompositionTier) fit(y []float64) (*decompositionModel, error) {
	n := len(y)
	scale := 0.0
	for _, v := range y {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		scale = 1
	}

	scaled := make([]float64, n)
	for i, v := range y {
		scaled[i] = v / scale
	}

	m := &decompositionModel{
		n:            n,
		scale:        scale,
		changepoints: changepointLocations(n, t.changepointCount()),
	}

	// a fit without changepoints estimates the noise level that calibrates the penalties
	base := &decompositionModel{n: n, scale: scale}
	baseBeta, err := ridgeSolve(base.design(n), scaled, base.penalties(0))
	if err != nil {
		return nil, err
	}
	base.beta = baseBeta
	variance := math.Max(residualVariance(base, scaled), minResidualVariance)

	prior := t.ChangepointPrior
	if prior <= 0 {
		prior = defaultChangepointPrior
	}

	beta, err := ridgeSolve(m.design(n), scaled, m.penalties(variance/(prior*prior)))
	if err != nil {
		return nil, err
	}
	m.beta = beta

	if !formulas.AllFinite(m.beta) {
		return nil, fmt.Errorf("%w: non-finite decomposition coefficients", domain.ErrNumericInstability)
	}

	return m, nil
}

func (t DecompositionTier) changepointCount() int {
	if t.Changepoints > 0 {
		return t.Changepoints
	}
	return defaultChangepoints
}

// changepointLocations spreads up to k changepoints evenly over the first 80% of history,
// expressed on the scaled time axis.
func changepointLocations(n, k int) []float64 {
	hist := int(math.Floor(changepointRange * float64(n)))
	if k > hist-1 {
		k = hist - 1
	}
	if k <= 0 {
		return nil
	}

	locs := make([]float64, k)
	for j := 1; j <= k; j++ {
		idx := math.Round(float64(j) * float64(hist-1) / float64(k))
		locs[j-1] = idx / float64(n-1)
	}
	return locs
}

// columns: intercept, slope, one hinge per changepoint, then sin/cos pairs of the weekly terms.
func (m *decompositionModel) width() int {
	return 2 + len(m.changepoints) + 2*weeklyFourierOrder
}

func (m *decompositionModel) row(i int) []float64 {
	t := float64(i) / float64(m.n-1)
	r := make([]float64, 0, m.width())
	r = append(r, 1, t)
	for _, s := range m.changepoints {
		r = append(r, math.Max(0, t-s))
	}
	for k := 1; k <= weeklyFourierOrder; k++ {
		angle := 2 * math.Pi * float64(k) * float64(i) / weeklyPeriod
		r = append(r, math.Sin(angle), math.Cos(angle))
	}
	return r
}

func (m *decompositionModel) design(rows int) *mat.Dense {
	x := mat.NewDense(rows, m.width(), nil)
	for i := 0; i < rows; i++ {
		x.SetRow(i, m.row(i))
	}
	return x
}

func (m *decompositionModel) penalties(changepointPenalty float64) []float64 {
	p := make([]float64, m.width())
	for j := range m.changepoints {
		p[2+j] = changepointPenalty
	}
	seasonal := 1 / (seasonalityPriorScale * seasonalityPriorScale)
	for j := 2 + len(m.changepoints); j < len(p); j++ {
		p[j] = seasonal
	}
	return p
}

func (m *decompositionModel) predict(i int) float64 {
	r := m.row(i)
	v := 0.0
	for j, x := range r {
		v += x * m.beta[j]
	}
	return v * m.scale
}

func residualVariance(m *decompositionModel, scaled []float64) float64 {
	sum := 0.0
	for i, y := range scaled {
		d := y - m.predict(i)/m.scale
		sum += d * d
	}
	return sum / float64(len(scaled))
}

// ridgeSolve minimises ||y - X b||^2 + sum(penalty_j * b_j^2) through the normal equations.
func ridgeSolve(x *mat.Dense, y []float64, penalty []float64) ([]float64, error) {
	_, cols := x.Dims()

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := xtx.At(i, j)
			if i == j {
				v += penalty[i] + numericalJitter
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("%w: normal equations not positive definite", domain.ErrNumericInstability)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(len(y), y))

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		// an ill-conditioned solve still yields coefficients; the caller checks they are finite
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNumericInstability, err)
		}
	}

	return beta.RawVector().Data, nil
}
