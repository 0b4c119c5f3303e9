package pricing

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/andresuchdata/setledger-ai/internal/domain"
	"github.com/andresuchdata/setledger-ai/pkg/formulas"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultTrees    = 50
	defaultSeed     = 42
	defaultMaxDepth = 12
)

// EnsembleConfig controls the bagged regression tree ensemble
type EnsembleConfig struct {
	Trees    int
	Seed     uint64
	MaxDepth int
}

func (c EnsembleConfig) withDefaults() EnsembleConfig {
	if c.Trees <= 0 {
		c.Trees = defaultTrees
	}
	if c.Seed == 0 {
		c.Seed = defaultSeed
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	return c
}

// Ensemble is a bagged set of regression trees over standardised inputs.
// Fitting is fully determined by the config seed.
type Ensemble struct {
	means []float64
	stds  []float64
	trees []*regressionTree
}

// FitEnsemble trains an ensemble on rows x with targets y
func FitEnsemble(x [][]float64, y []float64, cfg EnsembleConfig) (*Ensemble, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows for %d targets", domain.ErrInsufficientData, len(x), len(y))
	}
	if !formulas.AllFinite(y) {
		return nil, fmt.Errorf("%w: non-finite training target", domain.ErrNumericInstability)
	}
	cfg = cfg.withDefaults()

	e := &Ensemble{}
	e.fitScaler(x)

	scaled := make([][]float64, len(x))
	for i, row := range x {
		scaled[i] = e.scale(row)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	e.trees = make([]*regressionTree, cfg.Trees)
	for t := range e.trees {
		sample := make([]int, len(scaled))
		for i := range sample {
			sample[i] = rng.IntN(len(scaled))
		}
		e.trees[t] = growTree(scaled, y, sample, cfg.MaxDepth)
	}

	return e, nil
}

// Predict averages the trees' predictions for one unscaled row
func (e *Ensemble) Predict(row []float64) float64 {
	scaled := e.scale(row)
	sum := 0.0
	for _, t := range e.trees {
		sum += t.predict(scaled)
	}
	return sum / float64(len(e.trees))
}

func (e *Ensemble) fitScaler(x [][]float64) {
	cols := len(x[0])
	e.means = make([]float64, cols)
	e.stds = make([]float64, cols)
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || !formulas.IsFinite(std) {
			std = 1
		}
		e.means[j] = mean
		e.stds[j] = std
	}
}

func (e *Ensemble) scale(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - e.means[j]) / e.stds[j]
	}
	return out
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type regressionTree struct {
	root *treeNode
}

func (t *regressionTree) predict(row []float64) float64 {
	n := t.root
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func growTree(x [][]float64, y []float64, sample []int, maxDepth int) *regressionTree {
	return &regressionTree{root: growNode(x, y, sample, maxDepth)}
}

// growNode splits on the feature/threshold with the largest squared-error reduction
// until nodes are pure, hold a single row or reach maxDepth.
func growNode(x [][]float64, y []float64, idx []int, depth int) *treeNode {
	total := 0.0
	for _, i := range idx {
		total += y[i]
	}
	leaf := &treeNode{leaf: true, value: total / float64(len(idx))}
	if depth == 0 || len(idx) < 2 {
		return leaf
	}

	bestScore := total * total / float64(len(idx))
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, len(idx))
	for j := range x[0] {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][j] < x[order[b]][j] })

		leftSum := 0.0
		for k := 0; k < len(order)-1; k++ {
			leftSum += y[order[k]]
			lo, hi := x[order[k]][j], x[order[k+1]][j]
			if lo == hi {
				continue
			}
			nl, nr := float64(k+1), float64(len(order)-k-1)
			rightSum := total - leftSum
			score := leftSum*leftSum/nl + rightSum*rightSum/nr
			if score > bestScore+1e-12 {
				bestScore = score
				bestFeature = j
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	if bestFeature < 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growNode(x, y, left, depth-1),
		right:     growNode(x, y, right, depth-1),
	}
}
