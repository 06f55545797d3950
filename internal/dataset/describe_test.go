package dataset

import (
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	frame := &Frame{
		Columns: []string{"x"},
		Rows:    [][]float64{{1}, {2}, {3}, {4}, {math.NaN()}},
	}
	summary := Describe(frame)[0]
	if summary.Count != 4 {
		t.Fatalf("expected count 4, got %d", summary.Count)
	}
	if summary.Mean != 2.5 || summary.Min != 1 || summary.Max != 4 || summary.Median != 2.5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if math.Abs(summary.Std-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Fatalf("expected sample std, got %v", summary.Std)
	}
	if nulls := NullCounts(frame); nulls[0] != 1 {
		t.Fatalf("expected 1 null, got %d", nulls[0])
	}
}

func TestDuplicateRows(t *testing.T) {
	frame := &Frame{
		Columns: []string{"a", "b"},
		Rows:    [][]float64{{1, 2}, {1, 2}, {2, 1}, {1, 2}},
	}
	if got := DuplicateRows(frame); got != 2 {
		t.Fatalf("expected 2 duplicates, got %d", got)
	}
}

func TestCorrelationAndClassCounts(t *testing.T) {
	frame := &Frame{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]float64{{1, 2, 3}, {2, 4, 1}, {3, 6, 2}},
	}
	corr, err := Correlation(frame, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if math.Abs(corr[0][1]-1) > 1e-12 || math.Abs(corr[1][1]-1) > 1e-12 {
		t.Fatalf("unexpected correlation %v", corr)
	}

	counts := ClassCounts([]int{1, 0, 1, 1})
	if len(counts) != 2 || counts[0].Count != 1 || counts[1].Count != 3 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}
