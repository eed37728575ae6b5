// Package config defines the training tool configuration and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"path/filepath"
)

// KeyRepeatPolicyStrictFIFO is the only implemented repeat-matching policy:
// repeated presses of the same key match reference actions in chronological
// order, never reordering across repeats.
const KeyRepeatPolicyStrictFIFO = "strict-fifo"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir is the root directory for patterns and recordings.
	DataDir string `koanf:"data_dir"`

	// HistoryDB is the path of the SQLite score-history database.
	HistoryDB string `koanf:"history_db"`

	// MetricsAddr optionally exposes /metrics during live sessions, e.g. ":9090".
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// QueueSize bounds the merged clock/input session queue.
	QueueSize int `koanf:"queue_size"`

	// DefaultToleranceMS is the tolerance window half-width in milliseconds
	// used when a pattern action carries no override.
	DefaultToleranceMS float64 `koanf:"default_tolerance_ms"`

	// PenaltyPerExtra is subtracted from the total score for every extra
	// candidate action. Zero disables the penalty.
	PenaltyPerExtra float64 `koanf:"penalty_per_extra"`

	// KeyRepeatPolicy selects how repeated same-key actions are matched.
	// Only "strict-fifo" is implemented.
	KeyRepeatPolicy string `koanf:"key_repeat_policy"`

	// LookaheadSeconds is the window the display layer is fed with upcoming
	// pattern actions.
	LookaheadSeconds float64 `koanf:"lookahead_seconds"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		DataDir:            "data",
		HistoryDB:          filepath.Join("data", "history.db"),
		MetricsAddr:        "",
		QueueSize:          4096,
		DefaultToleranceMS: 100,
		PenaltyPerExtra:    0,
		KeyRepeatPolicy:    KeyRepeatPolicyStrictFIFO,
		LookaheadSeconds:   5,
	}
}
