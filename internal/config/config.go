// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) returning a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and environment.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ConsumerWorkers sets the number of event consumer workers.
	ConsumerWorkers int `koanf:"consumer_workers"`

	// DedupeSize bounds the event-ID deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RecommendationCacheTTLSeconds bounds how long a generated
	// recommendation list is served from cache.
	RecommendationCacheTTLSeconds int `koanf:"recommendation_cache_ttl_seconds"`

	// RedisAddr points at the profile store. Empty selects the
	// in-memory store.
	RedisAddr string `koanf:"redis_addr"`

	// RedisDB selects the redis logical database.
	RedisDB int `koanf:"redis_db"`

	// DefaultLimit is the recommendation list size when the caller
	// passes none.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the recommendation list size.
	MaxLimit int `koanf:"max_limit"`

	// ShardCount configures the number of shards in the journey
	// transition table.
	ShardCount int `koanf:"shard_count"`

	// EpsilonDefault is the exploration rate used for profiles with no
	// engagement classification.
	EpsilonDefault float64 `koanf:"epsilon_default"`

	// DemoEvents publishes that many synthetic events at startup and
	// seeds the in-memory catalog. Zero disables demo traffic.
	DemoEvents int `koanf:"demo_events"`

	// DemoUsers spreads demo traffic over that many synthetic users.
	DemoUsers int `koanf:"demo_users"`
}

// New creates a Config populated with defaults. Context is accepted
// first to satisfy the project-wide convention; it is reserved for
// future use and currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                      "info",
		Addr:                          ":9080",
		ConsumerWorkers:               runtime.NumCPU() * 4,
		DedupeSize:                    500_000,
		RecommendationCacheTTLSeconds: 300,
		RedisAddr:                     "",
		RedisDB:                       0,
		DefaultLimit:                  10,
		MaxLimit:                      50,
		ShardCount:                    16,
		EpsilonDefault:                0.2,
		DemoEvents:                    0,
		DemoUsers:                     10,
	}
}
