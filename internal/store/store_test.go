package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/parkinsight/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	})
	return st
}

func TestInsertAndListRuns(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := model.RunRecord{ID: "a", StartedAt: base, EndedAt: base.Add(time.Minute), VoiceRows: 195, SymptomRows: 300, OutliersBefore: 40, OutliersAfter: 0, BestParams: "x", ArtifactsDir: "/tmp/a"}
	newer := model.RunRecord{ID: "b", StartedAt: base.Add(time.Hour), EndedAt: base.Add(2 * time.Hour), VoiceRows: 195, ArtifactsDir: "/tmp/b"}
	scores := []model.ModelScore{
		{Dataset: "voice", Model: "SVM", Accuracy: 0.87, Precision: 0.8, Recall: 0.9, F1: 0.85},
		{Dataset: "symptom", Model: "Random Forest", Accuracy: 0.7},
	}
	grid := []model.GridScore{{Index: 1, Params: "p1", Mean: 0.9, Std: 0.02}, {Index: 0, Params: "p0", Mean: 0.8, Std: 0.01}}

	if err := st.InsertRun(ctx, older, scores, grid); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if err := st.InsertRun(ctx, newer, nil, nil); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	runs, err := st.ListRuns(ctx, nil)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[1].ID != "a" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if !runs[1].StartedAt.Equal(base) || runs[1].OutliersBefore != 40 {
		t.Fatalf("unexpected run fields %+v", runs[1])
	}

	since := base.Add(30 * time.Minute)
	recent, err := st.ListRuns(ctx, &since)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "b" {
		t.Fatalf("expected only run b, got %+v", recent)
	}

	byRun, err := st.ListScores(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(byRun["a"]) != 2 || byRun["a"][0].Dataset != "voice" {
		t.Fatalf("unexpected scores %+v", byRun)
	}

	curve, err := st.ListGridScores(ctx, "a")
	if err != nil {
		t.Fatalf("ListGridScores failed: %v", err)
	}
	if len(curve) != 2 || curve[0].Params != "p0" {
		t.Fatalf("expected grid scores ordered by index, got %+v", curve)
	}

	summaries, err := st.Summaries(ctx, nil)
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	if len(summaries) != 2 || len(summaries[1].Scores) != 2 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
}

func TestGetRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.GetRun(ctx, ""); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound on empty store, got %v", err)
	}
	now := time.Now().UTC()
	for i, id := range []string{"first", "second"} {
		run := model.RunRecord{ID: id, StartedAt: now.Add(time.Duration(i) * time.Second), EndedAt: now}
		if err := st.InsertRun(ctx, run, nil, nil); err != nil {
			t.Fatalf("InsertRun failed: %v", err)
		}
	}
	latest, err := st.GetRun(ctx, "")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if latest.ID != "second" {
		t.Fatalf("expected latest run, got %s", latest.ID)
	}
	if _, err := st.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestInsertRunRollsBackOnDuplicate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	run := model.RunRecord{ID: "dup", StartedAt: now, EndedAt: now}
	if err := st.InsertRun(ctx, run, nil, nil); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	scores := []model.ModelScore{{Dataset: "voice", Model: "SVM"}}
	if err := st.InsertRun(ctx, run, scores, nil); err == nil {
		t.Fatalf("expected duplicate run to fail")
	}
	byRun, err := st.ListScores(ctx, []string{"dup"})
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(byRun["dup"]) != 0 {
		t.Fatalf("expected rollback to discard scores, got %+v", byRun["dup"])
	}
}
