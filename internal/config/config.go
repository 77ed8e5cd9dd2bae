// Package config defines service configuration structures and loading
// hooks.
//
// Conventions:
// - Provide New() defaults and Load(ctx) for layered loading.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory signal queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the signal idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the assessment store shards.
	ShardCount int `koanf:"shard_count"`

	// MaxTopLimit caps GET /exposures?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// DatabaseURL enables the Postgres reference catalog when set.
	DatabaseURL string `koanf:"database_url"`

	// KafkaBrokers enables the signal consumer when non-empty.
	KafkaBrokers          []string `koanf:"kafka_brokers"`
	KafkaTopicSignals     string   `koanf:"kafka_topic_signals"`
	KafkaTopicAssessments string   `koanf:"kafka_topic_assessments"`
	ConsumerGroup         string   `koanf:"consumer_group"`

	// Engine calibration. These mirror the scoring weight tables so a
	// deployment can recalibrate without a rebuild.
	EventTypeWeights map[string]float64 `koanf:"event_type_weights"`
	DecayRatePerWeek float64            `koanf:"decay_rate_per_week"`
	MinConfidence    float64            `koanf:"min_confidence"`
	FallbackScore    float64            `koanf:"fallback_score"`

	// MaterialityThreshold excludes low exposures from ranked lists.
	MaterialityThreshold float64 `koanf:"materiality_threshold"`

	// DefaultForecastHorizonWeeks applies when a forecast request omits
	// the horizon.
	DefaultForecastHorizonWeeks int `koanf:"default_forecast_horizon_weeks"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:                    "info",
		Addr:                        ":9080",
		QueueSize:                   100_000,
		WorkerCount:                 runtime.NumCPU() * 4,
		DedupeSize:                  500_000,
		ShardCount:                  8,
		MaxTopLimit:                 100,
		KafkaTopicSignals:           "signals.classified",
		KafkaTopicAssessments:       "assessments.scored",
		ConsumerGroup:               "supplyline-engine",
		DecayRatePerWeek:            0.05,
		MinConfidence:               0.60,
		FallbackScore:               0.30,
		MaterialityThreshold:        0.10,
		DefaultForecastHorizonWeeks: 6,
		ShutdownTimeout:             30 * time.Second,
	}
}
