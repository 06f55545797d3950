package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary is the descriptive summary of one column.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarises every column, ignoring missing cells.
func Describe(f *Frame) []ColumnSummary {
	out := make([]ColumnSummary, len(f.Columns))
	for j, name := range f.Columns {
		sorted := finiteSorted(f.Column(j))
		s := ColumnSummary{Column: name, Count: len(sorted)}
		if len(sorted) == 0 {
			nan := math.NaN()
			s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
			out[j] = s
			continue
		}
		s.Mean = stat.Mean(sorted, nil)
		if len(sorted) > 1 {
			s.Std = stat.StdDev(sorted, nil)
		} else {
			s.Std = math.NaN()
		}
		s.Min = sorted[0]
		s.Max = sorted[len(sorted)-1]
		s.Q25 = quantileSorted(sorted, 0.25)
		s.Median = quantileSorted(sorted, 0.5)
		s.Q75 = quantileSorted(sorted, 0.75)
		out[j] = s
	}
	return out
}

// NullCounts returns the number of missing cells per column.
func NullCounts(f *Frame) []int {
	counts := make([]int, len(f.Columns))
	for _, row := range f.Rows {
		for j, v := range row {
			if math.IsNaN(v) {
				counts[j]++
			}
		}
	}
	return counts
}

// DuplicateRows counts rows identical to an earlier row.
func DuplicateRows(f *Frame) int {
	seen := make(map[string]struct{}, len(f.Rows))
	dups := 0
	buf := make([]byte, 0, 8*len(f.Columns))
	for _, row := range f.Rows {
		buf = buf[:0]
		for _, v := range row {
			bits := math.Float64bits(v)
			if math.IsNaN(v) {
				bits = 0x7ff8000000000001
			}
			for s := 0; s < 64; s += 8 {
				buf = append(buf, byte(bits>>s))
			}
		}
		key := string(buf)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// ClassCount is the number of rows carrying one label value.
type ClassCount struct {
	Class int
	Count int
}

// ClassCounts tallies labels in ascending class order.
func ClassCounts(labels []int) []ClassCount {
	classes, members := groupByClass(labels)
	out := make([]ClassCount, len(classes))
	for i, c := range classes {
		out[i] = ClassCount{Class: c, Count: len(members[i])}
	}
	return out
}

// Correlation returns the pairwise Pearson correlation of the named columns.
// Rows with a missing value in either column are skipped for that pair.
func Correlation(f *Frame, names []string) ([][]float64, error) {
	sel, err := f.Select(names)
	if err != nil {
		return nil, err
	}
	cols := make([][]float64, len(names))
	for j := range names {
		cols[j] = sel.Column(j)
	}
	out := make([][]float64, len(names))
	for a := range names {
		out[a] = make([]float64, len(names))
		for b := range names {
			x, y := pairwiseComplete(cols[a], cols[b])
			if len(x) < 2 {
				out[a][b] = math.NaN()
				continue
			}
			out[a][b] = stat.Correlation(x, y, nil)
		}
	}
	return out, nil
}

func pairwiseComplete(a, b []float64) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

// Head returns at most n leading rows.
func Head(f *Frame, n int) *Frame {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}
