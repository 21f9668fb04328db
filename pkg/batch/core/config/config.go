package config

// Package config provides structures and utilities for managing engine configuration.

import (
	"github.com/hashicorp/go-multierror"
	"github.com/tigerroll/riptide/pkg/batch/support/util/exception"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

const moduleName = "config"

// RetryConfig holds the retry policy configuration applied to every item attempt.
type RetryConfig struct {
	MaxRetries          int      `yaml:"max_retries"`          // MaxRetries is the maximum number of retries after the first attempt.
	BackoffStrategy     string   `yaml:"backoff_strategy"`     // BackoffStrategy selects how the delay grows: "fixed", "linear" or "exponential".
	BaseDelayMs         int      `yaml:"base_delay_ms"`        // BaseDelayMs is the base backoff delay in milliseconds.
	MaxDelayMs          int      `yaml:"max_delay_ms"`         // MaxDelayMs caps the backoff delay in milliseconds.
	RetryableExceptions []string `yaml:"retryable_exceptions"` // RetryableExceptions is a list of retryable error matchers (case-insensitive substrings or registered names).
}

// BatchConfig holds configuration for a single batch run.
// It is immutable per invocation; AdaptiveOptimize mutates a scheduler-owned copy
// between successive runs, never a run in flight.
type BatchConfig struct {
	// BatchSize is the number of items processed together in one chunk.
	BatchSize int `yaml:"batch_size"`
	// MaxConcurrency bounds the number of items in flight at once within a chunk.
	MaxConcurrency int `yaml:"max_concurrency"`
	// DelayMs is the pacing delay between consecutive chunks in milliseconds.
	DelayMs int `yaml:"delay_ms"`
	// RetryAttempts is the per-item retry budget (attempts = RetryAttempts + 1).
	RetryAttempts int `yaml:"retry_attempts"`
	// TimeoutMs is the per-attempt timeout in milliseconds.
	TimeoutMs int `yaml:"timeout_ms"`
	// MemoryThresholdMB is the heap usage above which the engine applies backpressure.
	MemoryThresholdMB int `yaml:"memory_threshold_mb"`
	// RatePerSecond optionally caps item dispatch throughput. 0 disables the limiter.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// Retry is the retry policy configuration.
	Retry RetryConfig `yaml:"retry"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// HistoryConfig holds run-history persistence settings.
type HistoryConfig struct {
	// Driver selects the run-history backend: "memory", "sqlite", "mysql" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is the data source name for database-backed run history.
	DSN string `yaml:"dsn"`
}

// RiptideConfig holds all configuration under the "riptide" top-level key.
type RiptideConfig struct {
	// Batch contains the batch engine configuration.
	Batch BatchConfig `yaml:"batch"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// History contains run-history persistence settings.
	History HistoryConfig `yaml:"history"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Riptide contains the top-level configuration for the Riptide batch engine.
	Riptide RiptideConfig `yaml:"riptide"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// DefaultRetryableMatchers are the error matchers treated as transient by default.
// Matching is a case-insensitive substring comparison against the error message,
// plus registered sentinel names (see the exception package).
var DefaultRetryableMatchers = []string{
	"connection refused",
	"no such host",
	"timed out",
	"connection reset",
	"network error",
	"timeout",
}

// NewBatchConfig returns a BatchConfig populated with the engine defaults.
//
// Returns:
//
//	A pointer to a new BatchConfig instance initialized with default settings.
func NewBatchConfig() *BatchConfig {
	return &BatchConfig{
		BatchSize:         5,
		MaxConcurrency:    3,
		DelayMs:           100,
		RetryAttempts:     3,
		TimeoutMs:         30000,
		MemoryThresholdMB: 100,
		Retry: RetryConfig{
			MaxRetries:          3,
			BackoffStrategy:     "exponential",
			BaseDelayMs:         1000,
			MaxDelayMs:          10000,
			RetryableExceptions: append([]string(nil), DefaultRetryableMatchers...),
		},
	}
}

// NewConfig returns a new instance of Config with default values.
//
// Returns:
//
//	A pointer to a new Config instance initialized with default settings.
func NewConfig() *Config {
	return &Config{
		Riptide: RiptideConfig{
			Batch: *NewBatchConfig(),
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			History: HistoryConfig{
				Driver: "memory",
			},
		},
	}
}

// Clone returns a deep copy of the BatchConfig so a scheduler can tune its own copy
// without affecting the caller's instance.
func (c *BatchConfig) Clone() *BatchConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Retry.RetryableExceptions = append([]string(nil), c.Retry.RetryableExceptions...)
	return &clone
}

// Validate checks the BatchConfig invariants and returns all violations aggregated
// into a single error, or nil if the configuration is valid.
func (c *BatchConfig) Validate() error {
	var violations *multierror.Error

	if c.BatchSize < 1 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "batch_size must be >= 1, got %d", c.BatchSize))
	}
	if c.MaxConcurrency < 1 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "max_concurrency must be >= 1, got %d", c.MaxConcurrency))
	}
	if c.DelayMs < 0 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "delay_ms must be >= 0, got %d", c.DelayMs))
	}
	if c.RetryAttempts < 0 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "retry_attempts must be >= 0, got %d", c.RetryAttempts))
	}
	if c.TimeoutMs <= 0 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "timeout_ms must be > 0, got %d", c.TimeoutMs))
	}
	if c.MemoryThresholdMB <= 0 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "memory_threshold_mb must be > 0, got %d", c.MemoryThresholdMB))
	}
	if c.RatePerSecond < 0 {
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "rate_per_second must be >= 0, got %f", c.RatePerSecond))
	}
	switch c.Retry.BackoffStrategy {
	case "", "fixed", "linear", "exponential":
	default:
		violations = multierror.Append(violations, exception.NewBatchErrorf(moduleName, "unknown backoff_strategy: %q", c.Retry.BackoffStrategy))
	}

	return violations.ErrorOrNil()
}
