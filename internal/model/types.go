// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// VoiceColumns lists the voice dataset columns in model-input order.
var VoiceColumns = []string{
	"MDVP:Fo (Hz)",
	"MDVP:Fhi (Hz)",
	"MDVP:Flo (Hz)",
	"MDVP:Jitter (%)",
	"MDVP:Jitter (Abs)",
	"MDVP:RAP",
	"MDVP:PPQ",
	"Jitter:DDP",
	"MDVP:Shimmer",
	"MDVP:Shimmer (dB)",
	"Shimmer:APQ3",
	"Shimmer:APQ5",
	"MDVP:APQ",
	"Shimmer:DDA",
	"HNR",
	"NHR",
	"DFA",
	"Spread1",
	"Spread2",
	"PPE",
}

// ImportantVoiceColumns is the subset used for the correlation overview.
var ImportantVoiceColumns = []string{
	"MDVP:Jitter (%)",
	"MDVP:Jitter (Abs)",
	"MDVP:Shimmer",
	"MDVP:Shimmer (dB)",
	"MDVP:APQ",
	"MDVP:PPQ",
	"MDVP:Fo (Hz)",
	"MDVP:Fhi (Hz)",
	"MDVP:Flo (Hz)",
	"HNR",
}

// VoiceFeatures holds the acoustic descriptors of one recording.
type VoiceFeatures struct {
	Fo            float64 `json:"fo" msgpack:"fo"`
	Fhi           float64 `json:"fhi" msgpack:"fhi"`
	Flo           float64 `json:"flo" msgpack:"flo"`
	JitterPercent float64 `json:"jitter_percent" msgpack:"jitter_percent"`
	JitterAbs     float64 `json:"jitter_abs" msgpack:"jitter_abs"`
	RAP           float64 `json:"rap" msgpack:"rap"`
	PPQ           float64 `json:"ppq" msgpack:"ppq"`
	DDP           float64 `json:"ddp" msgpack:"ddp"`
	Shimmer       float64 `json:"shimmer" msgpack:"shimmer"`
	ShimmerDB     float64 `json:"shimmer_db" msgpack:"shimmer_db"`
	APQ3          float64 `json:"apq3" msgpack:"apq3"`
	APQ5          float64 `json:"apq5" msgpack:"apq5"`
	APQ           float64 `json:"apq" msgpack:"apq"`
	DDA           float64 `json:"dda" msgpack:"dda"`
	HNR           float64 `json:"hnr" msgpack:"hnr"`
	NHR           float64 `json:"nhr" msgpack:"nhr"`
	DFA           float64 `json:"dfa" msgpack:"dfa"`
	Spread1       float64 `json:"spread1" msgpack:"spread1"`
	Spread2       float64 `json:"spread2" msgpack:"spread2"`
	PPE           float64 `json:"ppe" msgpack:"ppe"`
}

// Vector maps the features onto VoiceColumns order.
func (f VoiceFeatures) Vector() []float64 {
	return []float64{
		f.Fo,
		f.Fhi,
		f.Flo,
		f.JitterPercent,
		f.JitterAbs,
		f.RAP,
		f.PPQ,
		f.DDP,
		f.Shimmer,
		f.ShimmerDB,
		f.APQ3,
		f.APQ5,
		f.APQ,
		f.DDA,
		f.HNR,
		f.NHR,
		f.DFA,
		f.Spread1,
		f.Spread2,
		f.PPE,
	}
}

// Named pairs each feature value with its column name.
func (f VoiceFeatures) Named() []NamedValue {
	vec := f.Vector()
	out := make([]NamedValue, len(vec))
	for i, v := range vec {
		out[i] = NamedValue{Name: VoiceColumns[i], Value: v}
	}
	return out
}

// NamedValue is a labelled scalar.
type NamedValue struct {
	Name  string
	Value float64
}

// MaxSymptomScore is the upper bound of every symptom severity score.
const MaxSymptomScore = 9

// SymptomScores holds self-reported severity scores.
type SymptomScores struct {
	Tremor       int
	Bradykinesia int
	Rigidity     int
}

// Validate checks every score lies in [0, MaxSymptomScore].
func (s SymptomScores) Validate() error {
	for _, item := range []struct {
		name  string
		value int
	}{
		{"tremor", s.Tremor},
		{"bradykinesia", s.Bradykinesia},
		{"rigidity", s.Rigidity},
	} {
		if item.value < 0 || item.value > MaxSymptomScore {
			return fmt.Errorf("%s must be between 0 and %d, got %d", item.name, MaxSymptomScore, item.value)
		}
	}
	return nil
}

// Vector maps the scores onto tremor, bradykinesia, rigidity order.
func (s SymptomScores) Vector() []float64 {
	return []float64{float64(s.Tremor), float64(s.Bradykinesia), float64(s.Rigidity)}
}

// Verdict is the combined textual diagnosis.
type Verdict string

// Diagnosis captures both model outputs and the verdict.
type Diagnosis struct {
	VoicePrediction   int
	SymptomPrediction int
	Verdict           Verdict
}

// TrainConfig defines training settings.
type TrainConfig struct {
	VoiceSource    string
	SymptomSource  string
	CacheDir       string
	Label          string
	SymptomColumns []string
	TestSize       float64
	Seed           int64
	Trees          int
	Folds          int
	Workers        int
	GridEstimators []int
	GridMaxDepth   []int
	GridMinSplit   []int
	GridMinLeaf    []int
	ArtifactsRoot  string
}

// PredictConfig defines inference inputs.
type PredictConfig struct {
	AudioPath string
	Scores    SymptomScores
	RunID     string
}

// RunRecord summarizes a completed training run.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	EndedAt        time.Time
	VoiceRows      int
	SymptomRows    int
	OutliersBefore int
	OutliersAfter  int
	BestParams     string
	ArtifactsDir   string
}

// ModelScore stores the evaluation of one fitted model within a run.
type ModelScore struct {
	Dataset   string
	Model     string
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// GridScore is the cross-validated accuracy of one tuning candidate.
type GridScore struct {
	Index  int
	Params string
	Mean   float64
	Std    float64
}

// RunSummary joins a run with its evaluation scores.
type RunSummary struct {
	Run    RunRecord
	Scores []ModelScore
}

// RunsConfig filters the run browser.
type RunsConfig struct {
	Since  *time.Time
	Last   int
	Window int
}
