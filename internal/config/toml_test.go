package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected missing config to be ignored, got %v", err)
	}
	if cfg.Data.VoiceURL != nil || cfg.Train.Seed != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[data]
voice-url = "voice.csv"
tremor-column = "tremor"

[train]
test-size = 0.25
seed = 7

[tune]
workers = 2
n-estimators = [10, 20]

[predict]
rigidity = 3

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Data.VoiceURL == nil || *cfg.Data.VoiceURL != "voice.csv" {
		t.Fatalf("unexpected voice url: %v", cfg.Data.VoiceURL)
	}
	if cfg.Data.TremorColumn == nil || *cfg.Data.TremorColumn != "tremor" {
		t.Fatalf("unexpected tremor column: %v", cfg.Data.TremorColumn)
	}
	if cfg.Train.TestSize == nil || *cfg.Train.TestSize != 0.25 {
		t.Fatalf("unexpected test size: %v", cfg.Train.TestSize)
	}
	if cfg.Train.Seed == nil || *cfg.Train.Seed != 7 {
		t.Fatalf("unexpected seed: %v", cfg.Train.Seed)
	}
	if cfg.Tune.Workers == nil || *cfg.Tune.Workers != 2 {
		t.Fatalf("unexpected workers: %v", cfg.Tune.Workers)
	}
	if len(cfg.Tune.NEstimators) != 2 || cfg.Tune.NEstimators[1] != 20 {
		t.Fatalf("unexpected n-estimators: %v", cfg.Tune.NEstimators)
	}
	if cfg.Predict.Rigidity == nil || *cfg.Predict.Rigidity != 3 {
		t.Fatalf("unexpected rigidity: %v", cfg.Predict.Rigidity)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[train]\nepochs = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}
