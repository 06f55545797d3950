package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// ForestParams configures a random forest.
type ForestParams struct {
	Trees int `msgpack:"n_estimators" json:"n_estimators"`
	TreeParams
	Seed int64 `msgpack:"seed" json:"seed"`
}

// String formats the tunable hyperparameters.
func (p ForestParams) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprintf("%d", p.MaxDepth)
	}
	return fmt.Sprintf("max_depth=%s min_samples_leaf=%d min_samples_split=%d n_estimators=%d",
		depth, p.MinSamplesLeaf, p.MinSamplesSplit, p.Trees)
}

// DefaultForestParams mirrors the usual forest defaults: 100 fully grown trees.
func DefaultForestParams(seed int64) ForestParams {
	return ForestParams{
		Trees: 100,
		TreeParams: TreeParams{
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		Seed: seed,
	}
}

// RandomForest is a bagged ensemble of Gini trees with sqrt feature sampling.
type RandomForest struct {
	Params ForestParams    `msgpack:"params"`
	Forest []*DecisionTree `msgpack:"trees"`
	Width  int             `msgpack:"width"`
	// Workers bounds concurrent tree fitting; zero or one fits sequentially.
	Workers int `msgpack:"-"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(params ForestParams) *RandomForest {
	return &RandomForest{Params: params}
}

func (m *RandomForest) Kind() Kind { return KindForest }

// Fit grows every tree on its own bootstrap sample.
func (m *RandomForest) Fit(x [][]float64, y []int) error {
	return m.FitContext(context.Background(), x, y)
}

// FitContext is Fit with cancellation between trees.
func (m *RandomForest) FitContext(ctx context.Context, x [][]float64, y []int) error {
	width, err := validateTraining(x, y)
	if err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}
	if m.Params.Trees <= 0 {
		return fmt.Errorf("fit forest: tree count must be positive, got %d", m.Params.Trees)
	}
	params := m.Params.TreeParams
	if params.MaxFeatures <= 0 {
		params.MaxFeatures = int(math.Sqrt(float64(width)))
		if params.MaxFeatures < 1 {
			params.MaxFeatures = 1
		}
	}

	master := rand.New(rand.NewSource(m.Params.Seed))
	seeds := make([]int64, m.Params.Trees)
	for t := range seeds {
		seeds[t] = master.Int63()
	}

	trees := make([]*DecisionTree, m.Params.Trees)
	g, ctx := errgroup.WithContext(ctx)
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	n := len(x)
	for t := range trees {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[t]))
			weight := make([]float64, n)
			for k := 0; k < n; k++ {
				weight[rng.Intn(n)]++
			}
			trees[t] = fitTree(x, y, weight, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}
	m.Forest = trees
	m.Width = width
	return nil
}

// Proba averages the class probabilities of every tree.
func (m *RandomForest) Proba(x [][]float64) ([][2]float64, error) {
	if len(m.Forest) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(x, m.Width); err != nil {
		return nil, err
	}
	out := make([][2]float64, len(x))
	scale := 1 / float64(len(m.Forest))
	for i, row := range x {
		var sum [2]float64
		for _, tree := range m.Forest {
			p := tree.Proba(row)
			sum[0] += p[0]
			sum[1] += p[1]
		}
		out[i] = [2]float64{sum[0] * scale, sum[1] * scale}
	}
	return out, nil
}

// Predict picks the most probable class; ties go to class 0.
func (m *RandomForest) Predict(x [][]float64) ([]int, error) {
	proba, err := m.Proba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		if p[1] > p[0] {
			out[i] = 1
		}
	}
	return out, nil
}
