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
//  1. defaults (New())
//  2. file (YAML) if SUPPLYLINE_CONFIG is set
//  3. env (prefix SUPPLYLINE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SUPPLYLINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Env keys like SUPPLYLINE_QUEUE_SIZE map to queue_size; underscores
	// are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("SUPPLYLINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "supplyline_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.MaterialityThreshold < 0 || cfg.MaterialityThreshold >= 1 {
		return nil, fmt.Errorf("%w: materiality_threshold must be in [0,1)", ErrInvalidConfig)
	}
	if cfg.DefaultForecastHorizonWeeks < 0 {
		return nil, fmt.Errorf("%w: default_forecast_horizon_weeks must be >= 0", ErrInvalidConfig)
	}
	return &cfg, nil
}
