package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
)

func TestNewBatchConfig_Defaults(t *testing.T) {
	cfg := config.NewBatchConfig()

	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 100, cfg.DelayMs)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 30000, cfg.TimeoutMs)
	assert.Equal(t, 100, cfg.MemoryThresholdMB)
	assert.Equal(t, 0.0, cfg.RatePerSecond)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, "exponential", cfg.Retry.BackoffStrategy)
	assert.Equal(t, 1000, cfg.Retry.BaseDelayMs)
	assert.Equal(t, 10000, cfg.Retry.MaxDelayMs)
	assert.NotEmpty(t, cfg.Retry.RetryableExceptions)
}

func TestBatchConfig_CloneIsIndependent(t *testing.T) {
	original := config.NewBatchConfig()
	clone := original.Clone()

	clone.BatchSize = 99
	clone.Retry.RetryableExceptions[0] = "mutated"

	assert.Equal(t, 5, original.BatchSize)
	assert.NotEqual(t, "mutated", original.Retry.RetryableExceptions[0])
}

func TestBatchConfig_Validate(t *testing.T) {
	valid := config.NewBatchConfig()
	assert.NoError(t, valid.Validate())

	invalid := config.NewBatchConfig()
	invalid.BatchSize = 0
	invalid.MaxConcurrency = -1
	invalid.TimeoutMs = 0
	invalid.Retry.BackoffStrategy = "quadratic"

	err := invalid.Validate()
	require.Error(t, err)
	// All violations are aggregated into one error.
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "max_concurrency")
	assert.Contains(t, err.Error(), "timeout_ms")
	assert.Contains(t, err.Error(), "backoff_strategy")
}

func TestLoadConfig_MergesYAMLOverDefaults(t *testing.T) {
	yamlBytes := []byte(`
riptide:
  batch:
    batch_size: 8
    max_concurrency: 4
    retry:
      backoff_strategy: linear
      base_delay_ms: 200
  system:
    logging:
      level: DEBUG
  history:
    driver: sqlite
    dsn: /tmp/riptide-test.db
`)

	cfg, err := config.LoadConfig("", yamlBytes)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Riptide.Batch.BatchSize)
	assert.Equal(t, 4, cfg.Riptide.Batch.MaxConcurrency)
	assert.Equal(t, "linear", cfg.Riptide.Batch.Retry.BackoffStrategy)
	assert.Equal(t, 200, cfg.Riptide.Batch.Retry.BaseDelayMs)
	assert.Equal(t, "DEBUG", cfg.Riptide.System.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Riptide.History.Driver)

	// Values the YAML does not mention keep their defaults.
	assert.Equal(t, 100, cfg.Riptide.Batch.DelayMs)
	assert.Equal(t, 30000, cfg.Riptide.Batch.TimeoutMs)
}

func TestLoadConfig_EnvironmentOverridesYAML(t *testing.T) {
	t.Setenv("RIPTIDE_BATCH_BATCH_SIZE", "12")
	t.Setenv("RIPTIDE_BATCH_RETRY_MAX_RETRIES", "7")
	t.Setenv("RIPTIDE_SYSTEM_LOGGING_LEVEL", "ERROR")

	yamlBytes := []byte(`
riptide:
  batch:
    batch_size: 8
`)
	cfg, err := config.LoadConfig("", yamlBytes)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Riptide.Batch.BatchSize)
	assert.Equal(t, 7, cfg.Riptide.Batch.Retry.MaxRetries)
	assert.Equal(t, "ERROR", cfg.Riptide.System.Logging.Level)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := config.LoadConfig("", []byte("riptide: [not a mapping"))
	assert.Error(t, err)
}
