// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Validate is applied after every layer has been merged.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	// ModelPath points at the exported pipeline artifact (JSON).
	ModelPath string `koanf:"model_path"`

	// Split file locations. Every file carries a header row; label files
	// have a single column.
	TrainFeaturesPath string `koanf:"train_features_path"`
	TrainLabelsPath   string `koanf:"train_labels_path"`
	TestFeaturesPath  string `koanf:"test_features_path"`
	TestLabelsPath    string `koanf:"test_labels_path"`

	// DecisionThreshold is the fraud probability at or above which a
	// transaction is flagged.
	DecisionThreshold float64 `koanf:"decision_threshold"`

	// MaxSessions bounds the in-memory page shell sessions.
	MaxSessions int `koanf:"max_sessions"`

	// Chart size in inches.
	ChartWidthIn  float64 `koanf:"chart_width_in"`
	ChartHeightIn float64 `koanf:"chart_height_in"`
}

// New creates a Config populated with defaults. The context is accepted
// first to match the loader signature; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8501",
		ModelPath:         "model/gb_classifier.json",
		TrainFeaturesPath: "data/split_data/X_train.csv",
		TrainLabelsPath:   "data/split_data/y_train.csv",
		TestFeaturesPath:  "data/split_data/X_test.csv",
		TestLabelsPath:    "data/split_data/y_test.csv",
		DecisionThreshold: 0.5,
		MaxSessions:       10_000,
		ChartWidthIn:      6,
		ChartHeightIn:     4.5,
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	}
	for key, v := range map[string]string{
		"train_features_path": c.TrainFeaturesPath,
		"train_labels_path":   c.TrainLabelsPath,
		"test_features_path":  c.TestFeaturesPath,
		"test_labels_path":    c.TestLabelsPath,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, key)
		}
	}
	if c.DecisionThreshold <= 0 || c.DecisionThreshold > 1 {
		return fmt.Errorf("%w: decision_threshold must be in (0, 1], got %v", ErrInvalidConfig, c.DecisionThreshold)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	}
	if c.ChartWidthIn <= 0 || c.ChartHeightIn <= 0 {
		return fmt.Errorf("%w: chart size must be positive", ErrInvalidConfig)
	}
	return nil
}
