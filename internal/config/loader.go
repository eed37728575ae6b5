package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if DOJO_CONFIG is set
//  3. env (prefix DOJO_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("DOJO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DOJO_QUEUE_SIZE, DOJO_DEFAULT_TOLERANCE_MS, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DOJO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "dojo_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultToleranceMS <= 0 {
		return fmt.Errorf("%w: default_tolerance_ms must be positive", ErrInvalidConfig)
	}
	if c.PenaltyPerExtra < 0 {
		return fmt.Errorf("%w: penalty_per_extra must not be negative", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.KeyRepeatPolicy != KeyRepeatPolicyStrictFIFO {
		return fmt.Errorf("%w: unknown key_repeat_policy %q", ErrInvalidConfig, c.KeyRepeatPolicy)
	}
	if c.LookaheadSeconds < 0 {
		return fmt.Errorf("%w: lookahead_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}
