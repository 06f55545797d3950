// Package artifact persists fitted scalers and classifiers as msgpack files.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/verte-zerg/parkinsight/internal/ml"
)

// FormatVersion is bumped whenever a body layout changes incompatibly.
const FormatVersion = 1

const (
	// VoiceScalerFile holds the scaler fit on the voice training split.
	VoiceScalerFile = "ss_parkin.msgpack"
	// VoiceModelFile holds the tuned voice forest.
	VoiceModelFile = "best_rfc_model.msgpack"
	// SymptomScalerFile holds the scaler fit on the symptom training split.
	SymptomScalerFile = "symptom_scaler.msgpack"
	// SymptomModelFile holds the symptom forest.
	SymptomModelFile = "symptom_rfc_model.msgpack"
)

// KindScaler tags a standard scaler envelope.
const KindScaler = "standard_scaler"

// ErrKindMismatch is returned when a file holds a different artifact kind.
var ErrKindMismatch = errors.New("artifact kind mismatch")

// ErrVersion is returned for files written by an incompatible format.
var ErrVersion = errors.New("unsupported artifact version")

// Envelope wraps every persisted body with the metadata needed to reuse it.
type Envelope struct {
	Kind      string             `msgpack:"kind"`
	Version   int                `msgpack:"version"`
	RunID     string             `msgpack:"run_id"`
	Columns   []string           `msgpack:"columns"`
	CreatedAt time.Time          `msgpack:"created_at"`
	Body      msgpack.RawMessage `msgpack:"body"`
}

func write(path string, env Envelope, body interface{}) error {
	raw, err := msgpack.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", env.Kind, err)
	}
	env.Version = FormatVersion
	env.Body = raw
	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now().UTC()
	}
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&env); err != nil {
		return fmt.Errorf("encode %s envelope: %w", env.Kind, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// ReadEnvelope decodes the envelope of an artifact file without its body.
func ReadEnvelope(path string) (Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if env.Version != FormatVersion {
		return Envelope{}, fmt.Errorf("%s: %w %d", filepath.Base(path), ErrVersion, env.Version)
	}
	return env, nil
}

// SaveScaler writes a fitted scaler together with its column names.
func SaveScaler(path, runID string, columns []string, s *ml.StandardScaler) error {
	if s.Width() != len(columns) {
		return fmt.Errorf("save scaler: %w: %d columns for %d features", ml.ErrWidthMismatch, len(columns), s.Width())
	}
	return write(path, Envelope{Kind: KindScaler, RunID: runID, Columns: columns}, s)
}

// LoadScaler reads a scaler written by SaveScaler.
func LoadScaler(path string) (*ml.StandardScaler, Envelope, error) {
	env, err := ReadEnvelope(path)
	if err != nil {
		return nil, Envelope{}, err
	}
	if env.Kind != KindScaler {
		return nil, env, fmt.Errorf("%s: %w: got %q", filepath.Base(path), ErrKindMismatch, env.Kind)
	}
	var s ml.StandardScaler
	if err := msgpack.Unmarshal(env.Body, &s); err != nil {
		return nil, env, fmt.Errorf("decode scaler: %w", err)
	}
	if s.Width() != len(env.Columns) || len(s.Scale) != s.Width() {
		return nil, env, fmt.Errorf("decode scaler: %w", ml.ErrWidthMismatch)
	}
	return &s, env, nil
}

// SaveClassifier writes any fitted classifier.
func SaveClassifier(path, runID string, columns []string, c ml.Classifier) error {
	return write(path, Envelope{Kind: string(c.Kind()), RunID: runID, Columns: columns}, c)
}

// LoadClassifier reads a classifier written by SaveClassifier.
func LoadClassifier(path string) (ml.Classifier, Envelope, error) {
	env, err := ReadEnvelope(path)
	if err != nil {
		return nil, Envelope{}, err
	}
	var c ml.Classifier
	switch ml.Kind(env.Kind) {
	case ml.KindSVM:
		c = &ml.LinearSVC{}
	case ml.KindForest:
		c = &ml.RandomForest{}
	case ml.KindLogistic:
		c = &ml.LogisticRegression{}
	case ml.KindBoost:
		c = &ml.GradientBoosting{}
	default:
		return nil, env, fmt.Errorf("%s: %w: unknown kind %q", filepath.Base(path), ErrKindMismatch, env.Kind)
	}
	if err := msgpack.Unmarshal(env.Body, c); err != nil {
		return nil, env, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return c, env, nil
}
