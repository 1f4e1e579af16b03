package config

import (
	"context"
	"errors"
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
//  2. file (YAML) if PATHWISE_CONFIG is set
//  3. env (prefix PATHWISE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("PATHWISE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: PATHWISE_ADDR, PATHWISE_CONSUMER_WORKERS, ...
	// Keys map like PATHWISE_CONSUMER_WORKERS -> consumer_workers,
	// preserving underscores to match the koanf struct tags.
	envProvider := env.Provider("PATHWISE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "pathwise_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.ConsumerWorkers <= 0 {
		return nil, errors.New("consumer_workers must be positive")
	}
	if cfg.DefaultLimit <= 0 || cfg.MaxLimit < cfg.DefaultLimit {
		return nil, errors.New("default_limit must be positive and no larger than max_limit")
	}
	if cfg.EpsilonDefault < 0 || cfg.EpsilonDefault > 1 {
		return nil, errors.New("epsilon_default must be in [0, 1]")
	}
	return &cfg, nil
}
