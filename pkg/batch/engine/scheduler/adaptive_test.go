package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	"github.com/tigerroll/riptide/pkg/batch/engine/scheduler"
)

func tuningConfig() *config.BatchConfig {
	cfg := config.NewBatchConfig()
	cfg.BatchSize = 5
	cfg.MaxConcurrency = 3
	cfg.DelayMs = 100
	cfg.MemoryThresholdMB = 100
	return cfg
}

func TestAdaptiveOptimize_MemoryConstrained(t *testing.T) {
	engine := scheduler.New[int, int](tuningConfig())

	// Above 80% of the 100 MB threshold.
	engine.AdaptiveOptimize(85, time.Second)

	cfg := engine.Config()
	assert.Equal(t, 3, cfg.BatchSize) // 5 shrunk by 30%
	assert.Equal(t, 150, cfg.DelayMs) // 100 grown by 50%
	assert.Equal(t, 3, cfg.MaxConcurrency)
}

func TestAdaptiveOptimize_BatchSizeFloor(t *testing.T) {
	base := tuningConfig()
	base.BatchSize = 1
	engine := scheduler.New[int, int](base)

	engine.AdaptiveOptimize(99, time.Second)

	assert.Equal(t, 1, engine.Config().BatchSize)
}

func TestAdaptiveOptimize_DelayCap(t *testing.T) {
	base := tuningConfig()
	base.DelayMs = 900
	engine := scheduler.New[int, int](base)

	engine.AdaptiveOptimize(99, time.Second)

	assert.Equal(t, 1000, engine.Config().DelayMs)
}

func TestAdaptiveOptimize_SlowRunLowersConcurrency(t *testing.T) {
	engine := scheduler.New[int, int](tuningConfig())

	engine.AdaptiveOptimize(10, 11*time.Second)

	cfg := engine.Config()
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 100, cfg.DelayMs)
}

func TestAdaptiveOptimize_ConcurrencyFloor(t *testing.T) {
	base := tuningConfig()
	base.MaxConcurrency = 1
	engine := scheduler.New[int, int](base)

	engine.AdaptiveOptimize(10, 11*time.Second)

	assert.Equal(t, 1, engine.Config().MaxConcurrency)
}

func TestAdaptiveOptimize_FastComfortableRunScalesUp(t *testing.T) {
	engine := scheduler.New[int, int](tuningConfig())

	// Below 2s and below 50% of the threshold.
	engine.AdaptiveOptimize(30, time.Second)

	cfg := engine.Config()
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 6, cfg.BatchSize)
}

func TestAdaptiveOptimize_ScaleUpCaps(t *testing.T) {
	base := tuningConfig()
	base.MaxConcurrency = 5
	base.BatchSize = 10
	engine := scheduler.New[int, int](base)

	engine.AdaptiveOptimize(10, time.Second)

	cfg := engine.Config()
	assert.Equal(t, 5, cfg.MaxConcurrency)
	assert.Equal(t, 10, cfg.BatchSize)
}

func TestAdaptiveOptimize_NoBranchLeavesConfigUnchanged(t *testing.T) {
	engine := scheduler.New[int, int](tuningConfig())

	// Neither memory-constrained, slow, nor fast-and-comfortable.
	engine.AdaptiveOptimize(60, 5*time.Second)

	cfg := engine.Config()
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 100, cfg.DelayMs)
}

func TestAdaptiveOptimize_MemoryConstraintWinsOverFastRun(t *testing.T) {
	engine := scheduler.New[int, int](tuningConfig())

	// Memory pressure and a fast run at once: only the memory branch fires.
	engine.AdaptiveOptimize(90, time.Second)

	cfg := engine.Config()
	assert.Equal(t, 3, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxConcurrency)
}
