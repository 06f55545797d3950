package ml

import (
	"math"
	"testing"
)

func TestClassificationReport(t *testing.T) {
	truth := []int{0, 0, 0, 1, 1, 1, 1, 1}
	pred := []int{0, 0, 1, 1, 1, 1, 0, 1}
	report, err := ClassificationReport(truth, pred)
	if err != nil {
		t.Fatalf("ClassificationReport failed: %v", err)
	}
	if report.Confusion != (ConfusionMatrix{{2, 1}, {1, 4}}) {
		t.Fatalf("unexpected confusion %v", report.Confusion)
	}
	if report.Accuracy != 0.75 {
		t.Fatalf("expected accuracy 0.75, got %v", report.Accuracy)
	}
	c0, c1 := report.Classes[0], report.Classes[1]
	approx := func(got, want float64) bool { return math.Abs(got-want) < 1e-12 }
	if !approx(c0.Precision, 2.0/3.0) || !approx(c0.Recall, 2.0/3.0) || c0.Support != 3 {
		t.Fatalf("unexpected class 0 metrics %+v", c0)
	}
	if !approx(c1.Precision, 0.8) || !approx(c1.Recall, 0.8) || !approx(c1.F1, 0.8) || c1.Support != 5 {
		t.Fatalf("unexpected class 1 metrics %+v", c1)
	}
	if !approx(report.MacroAvg.F1, (2.0/3.0+0.8)/2) {
		t.Fatalf("unexpected macro F1 %v", report.MacroAvg.F1)
	}
	if !approx(report.WeightedAvg.Recall, 0.75) {
		t.Fatalf("unexpected weighted recall %v", report.WeightedAvg.Recall)
	}
}

func TestClassificationReportZeroDivision(t *testing.T) {
	report, err := ClassificationReport([]int{1, 1}, []int{1, 1})
	if err != nil {
		t.Fatalf("ClassificationReport failed: %v", err)
	}
	if report.Classes[0].Precision != 0 || report.Classes[0].F1 != 0 {
		t.Fatalf("expected zeros for absent class, got %+v", report.Classes[0])
	}
}

func TestAccuracyLengthMismatch(t *testing.T) {
	if _, err := Accuracy([]int{1}, []int{1, 0}); err == nil {
		t.Fatalf("expected error")
	}
}
