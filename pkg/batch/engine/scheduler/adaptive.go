package scheduler

import (
	"time"

	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

// Adaptive tuning policy constants. These are operational heuristics calibrated
// for rate-sensitive downstream services, not derived quantities.
const (
	// highMemoryFraction of the configured threshold above which a run is
	// considered memory-constrained.
	highMemoryFraction = 0.8
	// lowMemoryFraction of the configured threshold below which a run is
	// considered memory-comfortable.
	lowMemoryFraction = 0.5
	// slowRunThreshold is the processing time above which a run is considered slow.
	slowRunThreshold = 10 * time.Second
	// fastRunThreshold is the processing time below which a run is considered fast.
	fastRunThreshold = 2 * time.Second
	// batchShrinkFactor scales the batch size down under memory constraint.
	batchShrinkFactor = 0.7
	// delayGrowthFactor scales the inter-chunk delay up under memory constraint.
	delayGrowthFactor = 1.5
	// maxAdaptiveDelayMs caps the inter-chunk delay grown by tuning.
	maxAdaptiveDelayMs = 1000
	// maxAdaptiveConcurrency caps the concurrency raised by tuning.
	maxAdaptiveConcurrency = 5
	// maxAdaptiveBatchSize caps the batch size raised by tuning.
	maxAdaptiveBatchSize = 10
)

// AdaptiveOptimize tunes the scheduler's configuration between runs based on
// the previous run's observed memory usage and processing time. Exactly one
// adjustment branch fires per call, in priority order:
//
//  1. Memory-constrained (usage above 80% of the threshold): shrink the batch
//     size by 30% (floor 1) and grow the inter-chunk delay by 50% (cap 1000ms).
//  2. Slow (processing time above 10s): lower concurrency by 1 (floor 1).
//  3. Fast and memory-comfortable (below 2s and below 50% of the threshold):
//     raise concurrency by 1 (cap 5) and the batch size by 1 (cap 10).
//
// Runs matching none of the branches leave the configuration unchanged. The
// tuned configuration takes effect on the next Execute; a running batch is
// never reconfigured mid-flight.
func (s *BatchScheduler[T, R]) AdaptiveOptimize(memoryUsageMB float64, processingTime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	threshold := float64(cfg.MemoryThresholdMB)

	switch {
	case memoryUsageMB > highMemoryFraction*threshold:
		newSize := int(float64(cfg.BatchSize) * batchShrinkFactor)
		if newSize < 1 {
			newSize = 1
		}
		newDelay := int(float64(cfg.DelayMs) * delayGrowthFactor)
		if newDelay > maxAdaptiveDelayMs {
			newDelay = maxAdaptiveDelayMs
		}
		logger.Infof("Adaptive tuning: memory-constrained (%.1f MB of %d MB threshold). Batch size %d -> %d, delay %dms -> %dms.",
			memoryUsageMB, cfg.MemoryThresholdMB, cfg.BatchSize, newSize, cfg.DelayMs, newDelay)
		cfg.BatchSize = newSize
		cfg.DelayMs = newDelay

	case processingTime > slowRunThreshold:
		if cfg.MaxConcurrency > 1 {
			logger.Infof("Adaptive tuning: slow run (%s). Concurrency %d -> %d.",
				processingTime, cfg.MaxConcurrency, cfg.MaxConcurrency-1)
			cfg.MaxConcurrency--
		}

	case processingTime < fastRunThreshold && memoryUsageMB < lowMemoryFraction*threshold:
		changed := false
		if cfg.MaxConcurrency < maxAdaptiveConcurrency {
			cfg.MaxConcurrency++
			changed = true
		}
		if cfg.BatchSize < maxAdaptiveBatchSize {
			cfg.BatchSize++
			changed = true
		}
		if changed {
			logger.Infof("Adaptive tuning: fast run (%s, %.1f MB). Concurrency %d, batch size %d.",
				processingTime, memoryUsageMB, cfg.MaxConcurrency, cfg.BatchSize)
		}
	}
}
