package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split holds disjoint row indices of a train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions rows so each class keeps its share in both parts.
// The test part holds ceil(testSize*n) rows.
func StratifiedSplit(labels []int, testSize float64, seed int64) (Split, error) {
	n := len(labels)
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	classes, members := groupByClass(labels)
	if nTrain < len(classes) || nTest < len(classes) {
		return Split{}, fmt.Errorf("cannot stratify %d rows with %d classes at test size %v", n, len(classes), testSize)
	}
	for i, idx := range members {
		if len(idx) < 2 {
			return Split{}, fmt.Errorf("class %d has fewer than 2 rows", classes[i])
		}
	}

	rng := rand.New(rand.NewSource(seed))
	counts := make([]int, len(classes))
	for i, idx := range members {
		counts[i] = len(idx)
	}
	trainAlloc := approximateMode(counts, nTrain, rng)
	rest := make([]int, len(counts))
	for i := range counts {
		rest[i] = counts[i] - trainAlloc[i]
	}
	testAlloc := approximateMode(rest, nTest, rng)

	var split Split
	for i, idx := range members {
		perm := rng.Perm(len(idx))
		for k := 0; k < trainAlloc[i]; k++ {
			split.Train = append(split.Train, idx[perm[k]])
		}
		for k := trainAlloc[i]; k < trainAlloc[i]+testAlloc[i]; k++ {
			split.Test = append(split.Test, idx[perm[k]])
		}
	}
	rng.Shuffle(len(split.Train), func(a, b int) { split.Train[a], split.Train[b] = split.Train[b], split.Train[a] })
	rng.Shuffle(len(split.Test), func(a, b int) { split.Test[a], split.Test[b] = split.Test[b], split.Test[a] })
	return split, nil
}

// groupByClass returns sorted class values and the row indices of each.
func groupByClass(labels []int) ([]int, [][]int) {
	byClass := make(map[int][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	members := make([][]int, len(classes))
	for i, c := range classes {
		members[i] = byClass[c]
	}
	return classes, members
}

// approximateMode allocates draws across classes proportionally to counts.
// Floors are topped up by largest remainder; ties are broken at random.
func approximateMode(counts []int, draws int, rng *rand.Rand) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	alloc := make([]int, len(counts))
	if total == 0 {
		return alloc
	}
	remainder := make([]float64, len(counts))
	assigned := 0
	for i, c := range counts {
		continuous := float64(c) / float64(total) * float64(draws)
		alloc[i] = int(math.Floor(continuous))
		remainder[i] = continuous - float64(alloc[i])
		assigned += alloc[i]
	}
	need := draws - assigned
	if need <= 0 {
		return alloc
	}

	values := append([]float64(nil), remainder...)
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	seen := make(map[float64]bool)
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		var inds []int
		for i, r := range remainder {
			if r == value {
				inds = append(inds, i)
			}
		}
		add := len(inds)
		if add > need {
			add = need
		}
		rng.Shuffle(len(inds), func(a, b int) { inds[a], inds[b] = inds[b], inds[a] })
		for _, i := range inds[:add] {
			alloc[i]++
		}
		need -= add
		if need == 0 {
			break
		}
	}
	return alloc
}
