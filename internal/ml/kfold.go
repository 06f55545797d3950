package ml

import (
	"fmt"
	"sort"
)

// Fold holds the train and validation indices of one cross-validation fold.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold assigns rows to k folds without shuffling so that each fold
// keeps the class balance. Classes are ordered by first appearance and every
// class is dealt across folds round-robin in index order.
func StratifiedKFold(y []int, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", len(y), k)
	}

	var order []int
	classIdx := make(map[int]int)
	encoded := make([]int, len(y))
	for i, label := range y {
		idx, ok := classIdx[label]
		if !ok {
			idx = len(order)
			classIdx[label] = idx
			order = append(order, label)
		}
		encoded[i] = idx
	}
	nClasses := len(order)

	sortedEnc := append([]int(nil), encoded...)
	sort.Ints(sortedEnc)
	allocation := make([][]int, k)
	for f := 0; f < k; f++ {
		allocation[f] = make([]int, nClasses)
		for i := f; i < len(sortedEnc); i += k {
			allocation[f][sortedEnc[i]]++
		}
	}

	testFold := make([]int, len(y))
	for c := 0; c < nClasses; c++ {
		var folds []int
		for f := 0; f < k; f++ {
			for n := 0; n < allocation[f][c]; n++ {
				folds = append(folds, f)
			}
		}
		pos := 0
		for i, e := range encoded {
			if e == c {
				testFold[i] = folds[pos]
				pos++
			}
		}
	}

	out := make([]Fold, k)
	for i, f := range testFold {
		for g := range out {
			if g == f {
				out[g].Test = append(out[g].Test, i)
			} else {
				out[g].Train = append(out[g].Train, i)
			}
		}
	}
	return out, nil
}

// TakeRows gathers rows and labels at the given indices.
func TakeRows(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	rows := make([][]float64, len(indices))
	labels := make([]int, len(indices))
	for k, i := range indices {
		rows[k] = x[i]
		labels[k] = y[i]
	}
	return rows, labels
}
