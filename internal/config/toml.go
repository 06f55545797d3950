// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data    DataConfig    `toml:"data"`
	Train   TrainConfig   `toml:"train"`
	Tune    TuneConfig    `toml:"tune"`
	Predict PredictConfig `toml:"predict"`
	Log     LogConfig     `toml:"log"`
}

// DataConfig maps dataset locations and column names.
type DataConfig struct {
	VoiceURL           *string `toml:"voice-url"`
	SymptomURL         *string `toml:"symptom-url"`
	Label              *string `toml:"label"`
	TremorColumn       *string `toml:"tremor-column"`
	BradykinesiaColumn *string `toml:"bradykinesia-column"`
	RigidityColumn     *string `toml:"rigidity-column"`
}

// TrainConfig maps split and baseline model settings.
type TrainConfig struct {
	TestSize *float64 `toml:"test-size"`
	Seed     *int64   `toml:"seed"`
	Trees    *int     `toml:"trees"`
}

// TuneConfig maps the Random Forest grid search.
type TuneConfig struct {
	Folds           *int  `toml:"folds"`
	Workers         *int  `toml:"workers"`
	NEstimators     []int `toml:"n-estimators"`
	MaxDepth        []int `toml:"max-depth"`
	MinSamplesSplit []int `toml:"min-samples-split"`
	MinSamplesLeaf  []int `toml:"min-samples-leaf"`
}

// PredictConfig maps default inference inputs.
type PredictConfig struct {
	Audio        *string `toml:"audio"`
	Tremor       *int    `toml:"tremor"`
	Bradykinesia *int    `toml:"bradykinesia"`
	Rigidity     *int    `toml:"rigidity"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
