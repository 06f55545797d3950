package audio

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestFindPeaksPlateausAndHeight(t *testing.T) {
	x := []float64{0, 1, 0, 2, 2, 2, 0, -1, -0.5, -1, 3, 3}
	got := FindPeaks(x, 0)
	want := []int{1, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFindPeaksShortInput(t *testing.T) {
	if got := FindPeaks([]float64{1, 2}, 0); len(got) != 0 {
		t.Fatalf("expected no peaks, got %v", got)
	}
}

func TestLogarithmicN(t *testing.T) {
	got := LogarithmicN(4, 7.1, 1.2)
	want := []int{4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDFAWhiteNoiseAndWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	noise := make([]float64, 10000)
	walk := make([]float64, len(noise))
	sum := 0.0
	for i := range noise {
		noise[i] = rng.NormFloat64()
		sum += noise[i]
		walk[i] = sum
	}
	alpha, err := DFA(noise)
	if err != nil {
		t.Fatalf("DFA failed: %v", err)
	}
	if math.Abs(alpha-0.5) > 0.1 {
		t.Fatalf("expected ~0.5 for white noise, got %v", alpha)
	}
	alpha, err = DFA(walk)
	if err != nil {
		t.Fatalf("DFA failed: %v", err)
	}
	if math.Abs(alpha-1.5) > 0.15 {
		t.Fatalf("expected ~1.5 for a random walk, got %v", alpha)
	}
}

func TestDFARejectsTinyInput(t *testing.T) {
	if _, err := DFA([]float64{1, 2, 3}); err == nil {
		t.Fatalf("expected error for three samples")
	}
}
