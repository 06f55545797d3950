package dataset

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values using linear interpolation between
// closest ranks (h = (n-1)p). NaN values are ignored; an all-NaN input yields NaN.
func Quantile(values []float64, p float64) float64 {
	sorted := finiteSorted(values)
	return quantileSorted(sorted, p)
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
