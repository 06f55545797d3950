package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/verte-zerg/parkinsight/internal/ml"
)

// Set bundles everything the predict path needs from one training run.
type Set struct {
	Dir            string
	RunID          string
	VoiceColumns   []string
	VoiceScaler    *ml.StandardScaler
	VoiceModel     ml.Classifier
	SymptomColumns []string
	SymptomScaler  *ml.StandardScaler
	SymptomModel   ml.Classifier
}

// Save writes the four artifact files into dir.
func (s Set) Save(dir string) error {
	steps := []struct {
		name string
		save func(path string) error
	}{
		{VoiceScalerFile, func(p string) error { return SaveScaler(p, s.RunID, s.VoiceColumns, s.VoiceScaler) }},
		{VoiceModelFile, func(p string) error { return SaveClassifier(p, s.RunID, s.VoiceColumns, s.VoiceModel) }},
		{SymptomScalerFile, func(p string) error { return SaveScaler(p, s.RunID, s.SymptomColumns, s.SymptomScaler) }},
		{SymptomModelFile, func(p string) error { return SaveClassifier(p, s.RunID, s.SymptomColumns, s.SymptomModel) }},
	}
	for _, step := range steps {
		if err := step.save(filepath.Join(dir, step.name)); err != nil {
			return fmt.Errorf("save %s: %w", step.name, err)
		}
	}
	return nil
}

// LoadSet reads the four artifact files of a run directory.
func LoadSet(dir string) (Set, error) {
	set := Set{Dir: dir}
	voiceScaler, env, err := LoadScaler(filepath.Join(dir, VoiceScalerFile))
	if err != nil {
		return Set{}, fmt.Errorf("load voice scaler: %w", err)
	}
	set.VoiceScaler = voiceScaler
	set.VoiceColumns = env.Columns
	set.RunID = env.RunID

	voiceModel, _, err := LoadClassifier(filepath.Join(dir, VoiceModelFile))
	if err != nil {
		return Set{}, fmt.Errorf("load voice model: %w", err)
	}
	set.VoiceModel = voiceModel

	symptomScaler, env, err := LoadScaler(filepath.Join(dir, SymptomScalerFile))
	if err != nil {
		return Set{}, fmt.Errorf("load symptom scaler: %w", err)
	}
	set.SymptomScaler = symptomScaler
	set.SymptomColumns = env.Columns

	symptomModel, _, err := LoadClassifier(filepath.Join(dir, SymptomModelFile))
	if err != nil {
		return Set{}, fmt.Errorf("load symptom model: %w", err)
	}
	set.SymptomModel = symptomModel
	return set, nil
}
