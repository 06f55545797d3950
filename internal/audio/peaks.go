package audio

// FindPeaks returns the indices of local maxima whose height is at least
// minHeight. Flat peaks report the middle sample, rounded down.
func FindPeaks(x []float64, minHeight float64) []int {
	var peaks []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			mid := (i + ahead - 1) / 2
			if x[mid] >= minHeight {
				peaks = append(peaks, mid)
			}
			i = ahead
		}
	}
	return peaks
}
