package ml

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ForestGrid lists candidate values per forest hyperparameter.
// A MaxDepth entry of zero means unlimited depth.
type ForestGrid struct {
	MaxDepth        []int
	MinSamplesLeaf  []int
	MinSamplesSplit []int
	Trees           []int
}

// DefaultForestGrid returns the standard 108-candidate grid.
func DefaultForestGrid() ForestGrid {
	return ForestGrid{
		MaxDepth:        []int{0, 10, 20, 30},
		MinSamplesLeaf:  []int{1, 2, 4},
		MinSamplesSplit: []int{2, 5, 10},
		Trees:           []int{50, 100, 200},
	}
}

// Candidates enumerates the grid with parameter names in alphabetical order
// and the last one varying fastest.
func (g ForestGrid) Candidates(seed int64) ([]ForestParams, error) {
	for name, values := range map[string][]int{
		"max_depth":         g.MaxDepth,
		"min_samples_leaf":  g.MinSamplesLeaf,
		"min_samples_split": g.MinSamplesSplit,
		"n_estimators":      g.Trees,
	} {
		if len(values) == 0 {
			return nil, fmt.Errorf("grid %s is empty", name)
		}
	}
	var out []ForestParams
	for _, depth := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, trees := range g.Trees {
					out = append(out, ForestParams{
						Trees: trees,
						TreeParams: TreeParams{
							MaxDepth:        depth,
							MinSamplesSplit: split,
							MinSamplesLeaf:  leaf,
						},
						Seed: seed,
					})
				}
			}
		}
	}
	return out, nil
}

// CandidateScore is the cross-validation outcome of one candidate.
type CandidateScore struct {
	Params     ForestParams
	FoldScores []float64
	Mean       float64
	Std        float64
}

// SearchResult is the outcome of a grid search.
type SearchResult struct {
	Scores    []CandidateScore
	BestIndex int
	Best      *RandomForest
}

// BestScore returns the winning candidate.
func (r SearchResult) BestScore() CandidateScore {
	return r.Scores[r.BestIndex]
}

// GridSearch cross-validates every candidate in parallel and refits the best
// on the full training data. Ties go to the earliest candidate.
type GridSearch struct {
	Grid    ForestGrid
	Folds   int
	Workers int
	Seed    int64
	// Progress, when set, is called after each candidate finishes.
	Progress func(done, total int)
}

// Run evaluates the grid on x, y.
func (s GridSearch) Run(ctx context.Context, x [][]float64, y []int) (SearchResult, error) {
	if _, err := validateTraining(x, y); err != nil {
		return SearchResult{}, fmt.Errorf("grid search: %w", err)
	}
	candidates, err := s.Grid.Candidates(s.Seed)
	if err != nil {
		return SearchResult{}, err
	}
	folds := s.Folds
	if folds == 0 {
		folds = 5
	}
	splits, err := StratifiedKFold(y, folds)
	if err != nil {
		return SearchResult{}, fmt.Errorf("grid search: %w", err)
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	scores := make([]CandidateScore, len(candidates))
	var mu sync.Mutex
	finished := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c, params := range candidates {
		c, params := c, params
		g.Go(func() error {
			foldScores := make([]float64, len(splits))
			for f, split := range splits {
				if err := gctx.Err(); err != nil {
					return err
				}
				trainX, trainY := TakeRows(x, y, split.Train)
				testX, testY := TakeRows(x, y, split.Test)
				forest := NewRandomForest(params)
				if err := forest.FitContext(gctx, trainX, trainY); err != nil {
					return fmt.Errorf("candidate %d fold %d: %w", c, f, err)
				}
				pred, err := forest.Predict(testX)
				if err != nil {
					return fmt.Errorf("candidate %d fold %d: %w", c, f, err)
				}
				acc, err := Accuracy(testY, pred)
				if err != nil {
					return fmt.Errorf("candidate %d fold %d: %w", c, f, err)
				}
				foldScores[f] = acc
			}
			mean, variance := stat.PopMeanVariance(foldScores, nil)
			scores[c] = CandidateScore{
				Params:     params,
				FoldScores: foldScores,
				Mean:       mean,
				Std:        math.Sqrt(variance),
			}
			if s.Progress != nil {
				mu.Lock()
				finished++
				s.Progress(finished, len(candidates))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, fmt.Errorf("grid search: %w", err)
	}

	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c].Mean > scores[best].Mean {
			best = c
		}
	}
	refit := NewRandomForest(scores[best].Params)
	refit.Workers = workers
	if err := refit.FitContext(ctx, x, y); err != nil {
		return SearchResult{}, fmt.Errorf("grid search refit: %w", err)
	}
	return SearchResult{Scores: scores, BestIndex: best, Best: refit}, nil
}
