package audio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LogarithmicN returns integer window sizes min*factor^i up to max, without repeats.
func LogarithmicN(minN, maxN, factor float64) []int {
	if maxN <= minN || factor <= 1 {
		return []int{int(minN)}
	}
	maxI := int(math.Floor(math.Log(maxN/minN) / math.Log(factor)))
	ns := []int{int(minN)}
	for i := 0; i <= maxI; i++ {
		n := int(math.Floor(minN * math.Pow(factor, float64(i))))
		if n > ns[len(ns)-1] {
			ns = append(ns, n)
		}
	}
	return ns
}

// DFA estimates the Hurst-like scaling exponent of x by detrended
// fluctuation analysis with half-overlapping windows and linear detrending.
func DFA(x []float64) (float64, error) {
	total := len(x)
	var nvals []int
	if total > 70 {
		nvals = LogarithmicN(4, 0.1*float64(total), 1.2)
	} else {
		nvals = []int{total - 2, total - 1}
	}
	if len(nvals) < 2 {
		return 0, fmt.Errorf("dfa: at least two window sizes are needed, signal has %d samples", total)
	}
	if nvals[0] < 2 {
		return 0, fmt.Errorf("dfa: window sizes must be at least two, signal has %d samples", total)
	}

	mean := stat.Mean(x, nil)
	walk := make([]float64, total)
	running := 0.0
	for i, v := range x {
		running += v - mean
		walk[i] = running
	}

	var logN, logF []float64
	for _, n := range nvals {
		f := fluctuation(walk, n)
		if f == 0 || math.IsNaN(f) {
			continue
		}
		logN = append(logN, math.Log(float64(n)))
		logF = append(logF, math.Log(f))
	}
	if len(logN) < 2 {
		return math.NaN(), nil
	}
	_, slope := stat.LinearRegression(logN, logF, nil, false)
	return slope, nil
}

// fluctuation is the mean RMS deviation of walk windows of size n from their
// linear trend.
func fluctuation(walk []float64, n int) float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	step := n / 2
	if step < 1 {
		step = 1
	}
	sum := 0.0
	count := 0
	for start := 0; start < len(walk)-n; start += step {
		seg := walk[start : start+n]
		alpha, beta := stat.LinearRegression(xs, seg, nil, false)
		sq := 0.0
		for i, v := range seg {
			r := v - (alpha + beta*xs[i])
			sq += r * r
		}
		sum += math.Sqrt(sq / float64(n))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
