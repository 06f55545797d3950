package ml

import (
	"errors"
	"math"
	"testing"
)

func TestStandardScalerRoundTrip(t *testing.T) {
	x := [][]float64{{1, 10, 7}, {2, 20, 7}, {3, 60, 7}, {6, 30, 7}}
	var s StandardScaler
	scaled, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for j := 0; j < 2; j++ {
		var sum, sq float64
		for _, row := range scaled {
			sum += row[j]
			sq += row[j] * row[j]
		}
		if math.Abs(sum) > 1e-9 || math.Abs(sq/float64(len(scaled))-1) > 1e-9 {
			t.Fatalf("column %d not standardised: sum=%v meansq=%v", j, sum, sq/4)
		}
	}
	if s.Scale[2] != 1 || scaled[0][2] != 0 {
		t.Fatalf("constant column should scale by 1, got scale %v value %v", s.Scale[2], scaled[0][2])
	}

	back, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	for i := range x {
		for j := range x[i] {
			if math.Abs(back[i][j]-x[i][j]) > 1e-9 {
				t.Fatalf("round trip mismatch at %d,%d: %v vs %v", i, j, back[i][j], x[i][j])
			}
		}
	}
}

func TestStandardScalerWidthMismatch(t *testing.T) {
	var s StandardScaler
	if _, err := s.TransformRow([]float64{1}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if err := s.Fit([][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := s.TransformRow([]float64{1, 2, 3}); !errors.Is(err, ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}
}
