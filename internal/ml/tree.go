package ml

import (
	"math"
	"math/rand"
	"sort"
)

const (
	leafFeature      = -1
	featureThreshold = 1e-7
	impurityEpsilon  = 1e-7
)

// TreeParams configures a single CART tree.
type TreeParams struct {
	// MaxDepth of zero grows until leaves are pure or too small.
	MaxDepth        int `msgpack:"max_depth" json:"max_depth"`
	MinSamplesSplit int `msgpack:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int `msgpack:"min_samples_leaf" json:"min_samples_leaf"`
	// MaxFeatures of zero considers every feature at each split.
	MaxFeatures int `msgpack:"max_features" json:"max_features"`
}

func (p TreeParams) normalized(width int) TreeParams {
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > width {
		p.MaxFeatures = width
	}
	return p
}

// TreeNode is one node of a flattened tree. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int        `msgpack:"f"`
	Threshold float64    `msgpack:"t"`
	Left      int        `msgpack:"l"`
	Right     int        `msgpack:"r"`
	Value     [2]float64 `msgpack:"v"`
}

// DecisionTree is a binary classification tree split on Gini impurity.
type DecisionTree struct {
	Nodes []TreeNode `msgpack:"nodes"`
	Width int        `msgpack:"width"`
}

type treeBuilder struct {
	x      [][]float64
	y      []int
	weight []float64
	params TreeParams
	rng    *rand.Rand
	nodes  []TreeNode
	order  []sortedSample
}

type sortedSample struct {
	value float64
	index int
}

// fitTree grows a tree on the rows with non-zero weight.
func fitTree(x [][]float64, y []int, weight []float64, params TreeParams, rng *rand.Rand) *DecisionTree {
	width := len(x[0])
	samples := make([]int, 0, len(x))
	for i, w := range weight {
		if w > 0 {
			samples = append(samples, i)
		}
	}
	b := &treeBuilder{
		x:      x,
		y:      y,
		weight: weight,
		params: params.normalized(width),
		rng:    rng,
		order:  make([]sortedSample, len(samples)),
	}
	b.build(samples, 0)
	return &DecisionTree{Nodes: b.nodes, Width: width}
}

func (b *treeBuilder) classWeights(samples []int) [2]float64 {
	var counts [2]float64
	for _, i := range samples {
		counts[b.y[i]] += b.weight[i]
	}
	return counts
}

func gini(counts [2]float64) float64 {
	total := counts[0] + counts[1]
	if total == 0 {
		return 0
	}
	p0 := counts[0] / total
	p1 := counts[1] / total
	return 1 - p0*p0 - p1*p1
}

func (b *treeBuilder) build(samples []int, depth int) int {
	counts := b.classWeights(samples)
	id := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: leafFeature, Value: normalizeCounts(counts)})

	n := len(samples)
	p := b.params
	if (p.MaxDepth > 0 && depth >= p.MaxDepth) ||
		n < p.MinSamplesSplit ||
		n < 2*p.MinSamplesLeaf ||
		gini(counts) <= impurityEpsilon {
		return id
	}

	split, ok := b.bestSplit(samples, counts)
	if !ok {
		return id
	}

	left := make([]int, 0, split.leftCount)
	right := make([]int, 0, n-split.leftCount)
	for _, i := range samples {
		if b.x[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	leftID := b.build(left, depth+1)
	rightID := b.build(right, depth+1)
	b.nodes[id].Feature = split.feature
	b.nodes[id].Threshold = split.threshold
	b.nodes[id].Left = leftID
	b.nodes[id].Right = rightID
	return id
}

type treeSplit struct {
	feature   int
	threshold float64
	leftCount int
	score     float64
}

func (b *treeBuilder) bestSplit(samples []int, total [2]float64) (treeSplit, bool) {
	width := len(b.x[0])
	features := b.rng.Perm(width)
	best := treeSplit{score: math.Inf(-1)}
	found := false
	visited := 0
	minLeaf := b.params.MinSamplesLeaf
	order := b.order[:len(samples)]

	for _, f := range features {
		if visited >= b.params.MaxFeatures && found {
			break
		}
		for k, i := range samples {
			order[k] = sortedSample{value: b.x[i][f], index: i}
		}
		sort.Slice(order, func(a, c int) bool { return order[a].value < order[c].value })
		if order[len(order)-1].value <= order[0].value+featureThreshold {
			continue
		}
		visited++

		var left [2]float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos].index
			left[b.y[i]] += b.weight[i]
			if order[pos+1].value <= order[pos].value+featureThreshold {
				continue
			}
			nLeft := pos + 1
			if nLeft < minLeaf || len(order)-nLeft < minLeaf {
				continue
			}
			right := [2]float64{total[0] - left[0], total[1] - left[1]}
			wl := left[0] + left[1]
			wr := right[0] + right[1]
			score := -wl*gini(left) - wr*gini(right)
			if score > best.score {
				threshold := order[pos].value/2 + order[pos+1].value/2
				if threshold == order[pos+1].value || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
					threshold = order[pos].value
				}
				best = treeSplit{feature: f, threshold: threshold, leftCount: nLeft, score: score}
				found = true
			}
		}
	}
	return best, found
}

func normalizeCounts(counts [2]float64) [2]float64 {
	total := counts[0] + counts[1]
	if total == 0 {
		return [2]float64{0.5, 0.5}
	}
	return [2]float64{counts[0] / total, counts[1] / total}
}

// Proba returns the class probabilities of the leaf reached by row.
func (t *DecisionTree) Proba(row []float64) [2]float64 {
	id := 0
	for {
		node := t.Nodes[id]
		if node.Feature == leafFeature {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
}

// Depth returns the longest root-to-leaf path length.
func (t *DecisionTree) Depth() int {
	var walk func(id int) int
	walk = func(id int) int {
		node := t.Nodes[id]
		if node.Feature == leafFeature {
			return 0
		}
		l := walk(node.Left)
		r := walk(node.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}
