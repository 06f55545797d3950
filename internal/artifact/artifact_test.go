package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verte-zerg/parkinsight/internal/ml"
)

func trainingData() ([][]float64, []int) {
	x := [][]float64{{0, 1}, {1, 0}, {0.2, 0.9}, {5, 6}, {6, 5}, {5.5, 5.2}}
	y := []int{0, 0, 0, 1, 1, 1}
	return x, y
}

func TestClassifierRoundTripPredictsIdentically(t *testing.T) {
	x, y := trainingData()
	params := ml.DefaultForestParams(42)
	params.Trees = 7
	models := []ml.Classifier{
		ml.NewLinearSVC(1),
		ml.NewRandomForest(params),
		ml.NewLogisticRegression(),
		ml.NewGradientBoosting(ml.DefaultBoostParams()),
	}
	dir := t.TempDir()
	for _, m := range models {
		if err := m.Fit(x, y); err != nil && !errors.Is(err, ml.ErrNotConverged) {
			t.Fatalf("%s: Fit failed: %v", m.Kind(), err)
		}
		path := filepath.Join(dir, string(m.Kind())+".msgpack")
		if err := SaveClassifier(path, "run-1", []string{"a", "b"}, m); err != nil {
			t.Fatalf("%s: SaveClassifier failed: %v", m.Kind(), err)
		}
		loaded, env, err := LoadClassifier(path)
		if err != nil {
			t.Fatalf("%s: LoadClassifier failed: %v", m.Kind(), err)
		}
		if env.RunID != "run-1" || !reflect.DeepEqual(env.Columns, []string{"a", "b"}) {
			t.Fatalf("%s: unexpected envelope %+v", m.Kind(), env)
		}
		want, err := m.Predict(x)
		if err != nil {
			t.Fatalf("%s: Predict failed: %v", m.Kind(), err)
		}
		got, err := loaded.Predict(x)
		if err != nil {
			t.Fatalf("%s: loaded Predict failed: %v", m.Kind(), err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("%s: predictions differ after reload: %v vs %v", m.Kind(), want, got)
		}
	}
}

func TestScalerRoundTripAndKindCheck(t *testing.T) {
	x, _ := trainingData()
	var s ml.StandardScaler
	if err := s.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, VoiceScalerFile)
	if err := SaveScaler(path, "run-2", []string{"a", "b"}, &s); err != nil {
		t.Fatalf("SaveScaler failed: %v", err)
	}
	loaded, _, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("LoadScaler failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, &s) {
		t.Fatalf("scaler changed on reload: %+v vs %+v", loaded, s)
	}
	if _, _, err := LoadClassifier(path); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	if err := SaveScaler(path, "run-2", []string{"a"}, &s); !errors.Is(err, ml.ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact file, got %d entries", len(entries))
	}
}

func TestSetSaveLoad(t *testing.T) {
	x, y := trainingData()
	var voiceScaler, symptomScaler ml.StandardScaler
	if err := voiceScaler.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := symptomScaler.Fit(x); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	params := ml.DefaultForestParams(1)
	params.Trees = 3
	voice := ml.NewRandomForest(params)
	symptom := ml.NewRandomForest(params)
	if err := voice.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := symptom.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	dir := t.TempDir()
	set := Set{
		RunID:          "run-3",
		VoiceColumns:   []string{"a", "b"},
		VoiceScaler:    &voiceScaler,
		VoiceModel:     voice,
		SymptomColumns: []string{"c", "d"},
		SymptomScaler:  &symptomScaler,
		SymptomModel:   symptom,
	}
	if err := set.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadSet(dir)
	if err != nil {
		t.Fatalf("LoadSet failed: %v", err)
	}
	if loaded.RunID != "run-3" || !reflect.DeepEqual(loaded.SymptomColumns, []string{"c", "d"}) {
		t.Fatalf("unexpected set metadata %+v", loaded)
	}
	if loaded.VoiceModel.Kind() != ml.KindForest {
		t.Fatalf("unexpected voice model kind %s", loaded.VoiceModel.Kind())
	}

	if _, err := LoadSet(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}
