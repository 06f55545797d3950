package dataset

import (
	"math"
	"testing"
)

func TestQuantileLinearInterpolation(t *testing.T) {
	values := []float64{4, 1, math.NaN(), 3, 2}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tc := range cases {
		if got := Quantile(values, tc.p); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("p=%v: expected %v, got %v", tc.p, tc.want, got)
		}
	}
}

func TestCleanOutliersReplacesWithMedian(t *testing.T) {
	frame := &Frame{
		Columns: []string{"x", "flat"},
		Rows: [][]float64{
			{1, 5},
			{2, 5},
			{3, 5},
			{4, 5},
			{100, 5},
		},
	}
	before := FitOutlierBounds(frame)
	if got := before.CountOutlierRows(frame); got != 1 {
		t.Fatalf("expected 1 outlier row, got %d", got)
	}
	if before[0].Lower != -1 || before[0].Upper != 7 {
		t.Fatalf("unexpected fences: %+v", before[0])
	}
	if before[1].Skip || before[1].Lower != 5 || before[1].Upper != 5 {
		t.Fatalf("unexpected constant-column fences: %+v", before[1])
	}

	replaced := before.Apply(frame)
	if replaced != 1 {
		t.Fatalf("expected 1 replacement, got %d", replaced)
	}
	if frame.Rows[4][0] != 3 {
		t.Fatalf("expected median 3, got %v", frame.Rows[4][0])
	}
	for _, row := range frame.Rows {
		if row[1] != 5 {
			t.Fatalf("constant column changed: %v", row)
		}
		if row[0] < before[0].Lower || row[0] > before[0].Upper {
			t.Fatalf("value %v outside original fences", row[0])
		}
	}
	if got := before.CountOutlierRows(frame); got != 0 {
		t.Fatalf("expected 0 outlier rows after cleaning, got %d", got)
	}

	snapshot := frame.Clone()
	if again := before.Apply(frame); again != 0 {
		t.Fatalf("expected idempotent apply, replaced %d", again)
	}
	for i := range frame.Rows {
		for j := range frame.Rows[i] {
			if frame.Rows[i][j] != snapshot.Rows[i][j] {
				t.Fatalf("row %d changed on reapply", i)
			}
		}
	}
}

func TestCleanOutliersZeroIQRColumn(t *testing.T) {
	frame := &Frame{
		Columns: []string{"x"},
		Rows:    [][]float64{{5}, {5}, {5}, {5}, {5}, {100}},
	}
	bounds := FitOutlierBounds(frame)
	b := bounds[0]
	if b.Lower != 5 || b.Upper != 5 || b.Median != 5 {
		t.Fatalf("unexpected fences: %+v", b)
	}
	if got := bounds.CountOutlierRows(frame); got != 1 {
		t.Fatalf("expected 1 outlier row, got %d", got)
	}
	if replaced := bounds.Apply(frame); replaced != 1 {
		t.Fatalf("expected 1 replacement, got %d", replaced)
	}
	for i, row := range frame.Rows {
		if row[0] < b.Lower || row[0] > b.Upper {
			t.Fatalf("row %d: value %v outside fences [%v, %v]", i, row[0], b.Lower, b.Upper)
		}
	}
	if again := bounds.Apply(frame); again != 0 {
		t.Fatalf("expected idempotent apply, replaced %d", again)
	}
}

func TestOutlierBoundsSkipAllNaNColumn(t *testing.T) {
	frame := &Frame{
		Columns: []string{"x"},
		Rows:    [][]float64{{math.NaN()}, {math.NaN()}},
	}
	bounds := FitOutlierBounds(frame)
	if !bounds[0].Skip {
		t.Fatalf("expected all-NaN column to be skipped")
	}
	if got := bounds.Apply(frame); got != 0 {
		t.Fatalf("expected no replacements, got %d", got)
	}
}

func TestCleanOutliersKeepsRowCountAndNaN(t *testing.T) {
	frame := &Frame{
		Columns: []string{"x"},
		Rows:    [][]float64{{1}, {math.NaN()}, {2}, {3}, {-50}},
	}
	CleanOutliers(frame)
	if len(frame.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(frame.Rows))
	}
	if !math.IsNaN(frame.Rows[1][0]) {
		t.Fatalf("expected NaN to be left alone")
	}
}
