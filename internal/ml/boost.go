package ml

import (
	"fmt"
	"math"
	"sort"
)

const boostMinGain = 1e-6

// BoostParams configures the gradient boosted tree ensemble.
type BoostParams struct {
	Rounds         int     `msgpack:"n_estimators"`
	MaxDepth       int     `msgpack:"max_depth"`
	LearningRate   float64 `msgpack:"eta"`
	Lambda         float64 `msgpack:"lambda"`
	Gamma          float64 `msgpack:"gamma"`
	MinChildWeight float64 `msgpack:"min_child_weight"`
}

// DefaultBoostParams returns 100 rounds of depth-6 trees with eta 0.3.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Rounds:         100,
		MaxDepth:       6,
		LearningRate:   0.3,
		Lambda:         1,
		Gamma:          0,
		MinChildWeight: 1,
	}
}

// GradientBoosting fits regression trees to the logistic loss gradient
// using second-order statistics and exact greedy split search.
type GradientBoosting struct {
	Params     BoostParams   `msgpack:"params"`
	BaseMargin float64       `msgpack:"base_margin"`
	Trees      [][]BoostNode `msgpack:"trees"`
	Width      int           `msgpack:"width"`
}

// BoostNode is one node of a flattened boosted tree. Leaves have Feature == -1.
type BoostNode struct {
	Feature   int     `msgpack:"f"`
	Threshold float64 `msgpack:"t"`
	Left      int     `msgpack:"l"`
	Right     int     `msgpack:"r"`
	Weight    float64 `msgpack:"w"`
}

// NewGradientBoosting returns an unfitted ensemble.
func NewGradientBoosting(params BoostParams) *GradientBoosting {
	return &GradientBoosting{Params: params}
}

func (m *GradientBoosting) Kind() Kind { return KindBoost }

// Fit adds Rounds trees, each fit to the current gradient and hessian.
func (m *GradientBoosting) Fit(x [][]float64, y []int) error {
	width, err := validateTraining(x, y)
	if err != nil {
		return fmt.Errorf("fit boosting: %w", err)
	}
	if m.Params.Rounds <= 0 {
		return fmt.Errorf("fit boosting: rounds must be positive, got %d", m.Params.Rounds)
	}
	n := len(x)
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = m.BaseMargin
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	m.Trees = m.Trees[:0]
	for round := 0; round < m.Params.Rounds; round++ {
		for i := range margin {
			p := sigmoid(margin[i])
			grad[i] = p - float64(y[i])
			hess[i] = math.Max(p*(1-p), 1e-16)
		}
		b := &boostBuilder{x: x, grad: grad, hess: hess, params: m.Params}
		b.build(append([]int(nil), all...), 0)
		for i, row := range x {
			margin[i] += evalBoostTree(b.nodes, row)
		}
		m.Trees = append(m.Trees, b.nodes)
	}
	m.Width = width
	return nil
}

type boostBuilder struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params BoostParams
	nodes  []BoostNode
}

func (b *boostBuilder) sums(samples []int) (float64, float64) {
	var g, h float64
	for _, i := range samples {
		g += b.grad[i]
		h += b.hess[i]
	}
	return g, h
}

func (b *boostBuilder) score(g, h float64) float64 {
	return g * g / (h + b.params.Lambda)
}

func (b *boostBuilder) build(samples []int, depth int) int {
	g, h := b.sums(samples)
	id := len(b.nodes)
	b.nodes = append(b.nodes, BoostNode{
		Feature: leafFeature,
		Weight:  -g / (h + b.params.Lambda) * b.params.LearningRate,
	})
	if depth >= b.params.MaxDepth || len(samples) < 2 {
		return id
	}

	feature, threshold, gain := b.bestSplit(samples, g, h)
	if feature < 0 || gain <= boostMinGain {
		return id
	}
	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, i := range samples {
		if b.x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	leftID := b.build(left, depth+1)
	rightID := b.build(right, depth+1)
	b.nodes[id] = BoostNode{Feature: feature, Threshold: threshold, Left: leftID, Right: rightID}
	return id
}

func (b *boostBuilder) bestSplit(samples []int, g, h float64) (int, float64, float64) {
	parent := b.score(g, h)
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0
	order := append([]int(nil), samples...)
	width := len(b.x[0])
	for f := 0; f < width; f++ {
		sort.SliceStable(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })
		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			gl += b.grad[i]
			hl += b.hess[i]
			cur := b.x[i][f]
			next := b.x[order[pos+1]][f]
			if next == cur {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := 0.5*(b.score(gl, hl)+b.score(gr, hr)-parent) - b.params.Gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) * 0.5
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func evalBoostTree(nodes []BoostNode, row []float64) float64 {
	id := 0
	for {
		node := nodes[id]
		if node.Feature == leafFeature {
			return node.Weight
		}
		if row[node.Feature] < node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
}

// Margin returns the raw additive score of each row.
func (m *GradientBoosting) Margin(x [][]float64) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(x, m.Width); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		z := m.BaseMargin
		for _, tree := range m.Trees {
			z += evalBoostTree(tree, row)
		}
		out[i] = z
	}
	return out, nil
}

// Predict labels rows with sigmoid(margin) above one half as 1.
func (m *GradientBoosting) Predict(x [][]float64) ([]int, error) {
	margins, err := m.Margin(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(margins))
	for i, z := range margins {
		if sigmoid(z) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}
