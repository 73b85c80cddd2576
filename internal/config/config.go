// Package config defines process configuration and how it is loaded.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address of serve, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Input and output locations.
	SubmissionsPath string `koanf:"submissions_path"`
	DefectsPath     string `koanf:"defects_path"`
	CatalogPath     string `koanf:"catalog_path"`
	OutputPath      string `koanf:"output_path"`

	// Separator is the submission log field separator.
	Separator string `koanf:"separator" validate:"len=1"`

	// EncodedAnswers makes the loader URL-unquote and base64-decode answers.
	EncodedAnswers bool `koanf:"encoded_answers"`

	// QueueSize bounds the partition queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// WorkerCount sets the number of recency workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// DedupeSize bounds the duplicate-id window; 0 remembers every id.
	DedupeSize int `koanf:"dedupe_size" validate:"min=0"`

	// MaxTopLimit caps GET /defects/top?limit.
	MaxTopLimit int `koanf:"max_top_limit" validate:"min=1"`

	// SentinelLabel is written for first occurrences.
	SentinelLabel string `koanf:"sentinel_label" validate:"required"`

	// LegacyFallback writes the position instead of the sentinel.
	LegacyFallback bool `koanf:"legacy_fallback"`

	// Split parameters.
	Seed     uint64  `koanf:"seed"`
	TrainPct float64 `koanf:"train_pct" validate:"gte=0,lte=1"`
	ValPct   float64 `koanf:"val_pct" validate:"gte=0,lte=1"`
	TestPct  float64 `koanf:"test_pct" validate:"gte=0,lte=1"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		Separator:     ";",
		QueueSize:     1024,
		WorkerCount:   runtime.NumCPU(),
		DedupeSize:    0,
		MaxTopLimit:   100,
		SentinelLabel: "first",
		TrainPct:      0.8,
		ValPct:        0,
		TestPct:       0.2,
	}
}

// SeparatorRune returns the separator as a rune.
func (c *Config) SeparatorRune() rune {
	for _, r := range c.Separator {
		return r
	}
	return ';'
}
