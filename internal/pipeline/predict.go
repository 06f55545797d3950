package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/verte-zerg/parkinsight/internal/artifact"
	"github.com/verte-zerg/parkinsight/internal/audio"
	"github.com/verte-zerg/parkinsight/internal/ml"
	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/store"
)

var (
	// ErrColumnMismatch is returned when artifacts were trained on other columns.
	ErrColumnMismatch = errors.New("artifact columns do not match")
	// ErrNonFinite is returned when an extracted feature is NaN or infinite.
	ErrNonFinite = errors.New("feature value is not finite")
)

// LoadArtifacts resolves a recorded run (the newest when runID is empty) and
// loads its artifact set.
func LoadArtifacts(ctx context.Context, st *store.Store, runID string) (artifact.Set, model.RunRecord, error) {
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return artifact.Set{}, model.RunRecord{}, err
	}
	set, err := artifact.LoadSet(run.ArtifactsDir)
	if err != nil {
		return artifact.Set{}, run, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return set, run, nil
}

// Predict scales both inputs with the fitted scalers, runs both models and
// combines their outputs.
func Predict(log *zap.SugaredLogger, set artifact.Set, features model.VoiceFeatures, scores model.SymptomScores) (model.Diagnosis, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := scores.Validate(); err != nil {
		return model.Diagnosis{}, err
	}
	if err := sameColumns(set.VoiceColumns, model.VoiceColumns); err != nil {
		return model.Diagnosis{}, fmt.Errorf("voice model: %w", err)
	}
	for _, nv := range features.Named() {
		if math.IsNaN(nv.Value) || math.IsInf(nv.Value, 0) {
			return model.Diagnosis{}, fmt.Errorf("%w: %s", ErrNonFinite, nv.Name)
		}
	}

	raw := features.Vector()
	voice, err := classify(log, "voice", set.VoiceScaler, set.VoiceModel, raw)
	if err != nil {
		return model.Diagnosis{}, err
	}
	symptom, err := classify(log, "symptom", set.SymptomScaler, set.SymptomModel, scores.Vector())
	if err != nil {
		return model.Diagnosis{}, err
	}
	return model.Diagnosis{
		VoicePrediction:   voice,
		SymptomPrediction: symptom,
		Verdict:           Diagnose(voice, symptom),
	}, nil
}

// PredictFile extracts voice features from a WAV file and predicts.
func PredictFile(log *zap.SugaredLogger, set artifact.Set, audioPath string, scores model.SymptomScores) (model.VoiceFeatures, model.Diagnosis, error) {
	features, err := audio.ExtractFile(audioPath)
	if err != nil {
		return model.VoiceFeatures{}, model.Diagnosis{}, fmt.Errorf("failed to extract features: %w", err)
	}
	diagnosis, err := Predict(log, set, features, scores)
	return features, diagnosis, err
}

func classify(log *zap.SugaredLogger, name string, scaler *ml.StandardScaler, clf ml.Classifier, raw []float64) (int, error) {
	if scaler == nil || clf == nil {
		return 0, fmt.Errorf("%s model: %w", name, ml.ErrNotFitted)
	}
	scaled, err := scaler.TransformRow(raw)
	if err != nil {
		return 0, fmt.Errorf("%s scaler: %w", name, err)
	}
	pred, err := ml.PredictOne(clf, scaled)
	if err != nil {
		return 0, fmt.Errorf("%s model: %w", name, err)
	}
	log.Debugw("prediction", "input", name, "raw", raw, "scaled", scaled, "prediction", pred)
	return pred, nil
}

func sameColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d columns, expected %d", ErrColumnMismatch, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrColumnMismatch, i, got[i], want[i])
		}
	}
	return nil
}
