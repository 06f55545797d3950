package ml

import (
	"reflect"
	"sort"
	"testing"
)

func TestStratifiedKFoldAssignment(t *testing.T) {
	y := []int{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	folds, err := StratifiedKFold(y, 5)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(folds))
	}
	for f, fold := range folds {
		want := []int{f, f + 5}
		if !reflect.DeepEqual(fold.Test, want) {
			t.Fatalf("fold %d: expected test %v, got %v", f, want, fold.Test)
		}
		all := append(append([]int(nil), fold.Train...), fold.Test...)
		sort.Ints(all)
		for i, v := range all {
			if v != i {
				t.Fatalf("fold %d does not cover rows", f)
			}
		}
	}
}

func TestStratifiedKFoldUnevenClasses(t *testing.T) {
	y := []int{0, 1, 1, 1, 0, 1, 1, 1, 1, 1, 0, 1}
	folds, err := StratifiedKFold(y, 3)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	seen := make(map[int]bool)
	for _, fold := range folds {
		zeros := 0
		for _, i := range fold.Test {
			if seen[i] {
				t.Fatalf("row %d in two test folds", i)
			}
			seen[i] = true
			if y[i] == 0 {
				zeros++
			}
		}
		if zeros != 1 || len(fold.Test) != 4 {
			t.Fatalf("unexpected fold balance: %v", fold.Test)
		}
	}
	if len(seen) != len(y) {
		t.Fatalf("expected every row tested once, got %d", len(seen))
	}
}

func TestStratifiedKFoldRejectsTooFewRows(t *testing.T) {
	if _, err := StratifiedKFold([]int{0, 1}, 5); err == nil {
		t.Fatalf("expected error")
	}
}
