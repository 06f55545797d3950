package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/parkinsight/internal/dataset"
	"github.com/verte-zerg/parkinsight/internal/ml"
	"github.com/verte-zerg/parkinsight/internal/model"
)

func sampleFrame() *dataset.Frame {
	return &dataset.Frame{
		Columns: []string{"HNR", "Status"},
		Rows: [][]float64{
			{21.5, 1},
			{math.NaN(), 0},
			{21.5, 1},
		},
	}
}

func TestRenderEDA(t *testing.T) {
	f := sampleFrame()
	var buf bytes.Buffer
	if err := RenderShape(&buf, "voice", f); err != nil {
		t.Fatalf("RenderShape failed: %v", err)
	}
	if err := RenderHead(&buf, f, 2); err != nil {
		t.Fatalf("RenderHead failed: %v", err)
	}
	if err := RenderNulls(&buf, f); err != nil {
		t.Fatalf("RenderNulls failed: %v", err)
	}
	if err := RenderDuplicates(&buf, f); err != nil {
		t.Fatalf("RenderDuplicates failed: %v", err)
	}
	if err := RenderDescribe(&buf, dataset.Describe(f)); err != nil {
		t.Fatalf("RenderDescribe failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"voice shape: (3, 2)",
		"First 2 rows",
		"HNR     21.5  NaN",
		"Missing values (1 total)",
		"Duplicate rows: 1",
		"Summary statistics",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderCorrelationPlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	corr := [][]float64{{1, -0.5}, {-0.5, 1}}
	if err := RenderCorrelation(&buf, []string{"A", "B"}, corr, true); err != nil {
		t.Fatalf("RenderCorrelation failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[1] != "         1      2" {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if lines[3] != "2 B  -0.50   1.00" {
		t.Fatalf("unexpected row %q", lines[3])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("NO_COLOR should suppress escapes")
	}
}

func TestRenderClassificationReport(t *testing.T) {
	r, err := ml.ClassificationReport([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	if err != nil {
		t.Fatalf("ClassificationReport failed: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderClassificationReport(&buf, "SVM", r); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if err := RenderConfusion(&buf, r.Confusion); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"precision  recall  f1-score  support",
		"0       1.00    0.50      0.67        2",
		"accuracy"+strings.Repeat(" ", 25)+"0.75        4",
		"true\\pred  0  1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTopCandidatesKeepsOrderOnTies(t *testing.T) {
	scores := []model.GridScore{
		{Index: 0, Mean: 0.8},
		{Index: 1, Mean: 0.9},
		{Index: 2, Mean: 0.9},
	}
	top := TopCandidates(scores, 2)
	if len(top) != 2 || top[0].Index != 1 || top[1].Index != 2 {
		t.Fatalf("unexpected top candidates %+v", top)
	}
	if got := TopCandidates(scores, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %+v", got)
	}
}

func TestRenderGridSearch(t *testing.T) {
	var buf bytes.Buffer
	scores := []model.GridScore{
		{Index: 0, Params: "a", Mean: 0.81, Std: 0.01},
		{Index: 1, Params: "b", Mean: 0.93, Std: 0.02},
	}
	if err := RenderGridSearch(&buf, scores, 5, 60, 4); err != nil {
		t.Fatalf("RenderGridSearch failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Best hyperparameters: b") {
		t.Fatalf("expected best params, got:\n%s", out)
	}
	if !strings.Contains(out, "Top 2 of 2 candidates") {
		t.Fatalf("expected top table, got:\n%s", out)
	}
}

func TestRenderRunsAndBestScore(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	runs := []model.RunSummary{{
		Run: model.RunRecord{ID: "0123456789abcdef", StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond), VoiceRows: 195},
		Scores: []model.ModelScore{
			{Dataset: "voice", Model: "SVM", Accuracy: 0.87},
			{Dataset: "voice", Model: "Random Forest", Accuracy: 0.92},
			{Dataset: "symptom", Model: "Random Forest", Accuracy: 0.99},
		},
	}}
	var buf bytes.Buffer
	if err := RenderRuns(&buf, runs); err != nil {
		t.Fatalf("RenderRuns failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "01234567") || !strings.Contains(out, "Random Forest") || !strings.Contains(out, "92.00%") {
		t.Fatalf("unexpected runs output:\n%s", out)
	}
	if !strings.Contains(out, "1.5s") {
		t.Fatalf("expected rounded duration, got:\n%s", out)
	}
	buf.Reset()
	if err := RenderRuns(&buf, nil); err != nil || buf.String() != "No runs found.\n" {
		t.Fatalf("unexpected empty output %q (%v)", buf.String(), err)
	}
}

func TestRenderDiagnosis(t *testing.T) {
	var buf bytes.Buffer
	d := model.Diagnosis{VoicePrediction: 1, SymptomPrediction: 0, Verdict: "verdict text"}
	if err := RenderDiagnosis(&buf, d); err != nil {
		t.Fatalf("RenderDiagnosis failed: %v", err)
	}
	want := "Voice model prediction: 1\nSymptom model prediction: 0\nverdict text\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
