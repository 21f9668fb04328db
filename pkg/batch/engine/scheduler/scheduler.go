// Package scheduler orchestrates concurrency-bounded batch runs: it chunks the
// input, paces chunk execution against the downstream service, bounds per-item
// concurrency through a semaphore, wraps every item in the retry executor, and
// applies memory backpressure between chunks. It is the only component of the
// engine with external entry points.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/riptide/pkg/batch/core/metrics"
	ports "github.com/tigerroll/riptide/pkg/batch/core/ports"
	memory "github.com/tigerroll/riptide/pkg/batch/engine/memory"
	retry "github.com/tigerroll/riptide/pkg/batch/engine/retry"
	semaphore "github.com/tigerroll/riptide/pkg/batch/engine/semaphore"
	configbinder "github.com/tigerroll/riptide/pkg/batch/support/util/configbinder"
	exception "github.com/tigerroll/riptide/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

const moduleName = "scheduler"

// Processor is the per-item operation supplied by the caller.
// It must be safe to invoke more than once per item: the engine retries failed
// attempts and does not deduplicate or roll back partial side effects.
type Processor[T, R any] func(ctx context.Context, item T) (R, error)

// BatchScheduler executes bulk operations against a rate-sensitive downstream
// service while bounding memory use and the number of in-flight operations.
//
// A scheduler owns a mutable copy of its BatchConfig: Execute snapshots the copy
// per invocation (the configuration of a running batch never changes mid-run),
// and AdaptiveOptimize tunes the copy between runs.
type BatchScheduler[T, R any] struct {
	mu  sync.Mutex // guards cfg against concurrent Execute/AdaptiveOptimize
	cfg *config.BatchConfig

	listeners []ports.BatchListener
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
	stats     retry.StatsCollector
	sampler   memory.Sampler
	reclaimer memory.Reclaimer
}

// New creates a BatchScheduler with the given configuration.
// cfg: The batch configuration. nil uses the engine defaults. The scheduler
// works on its own copy, so later mutation of cfg by the caller has no effect.
func New[T, R any](cfg *config.BatchConfig) *BatchScheduler[T, R] {
	if cfg == nil {
		cfg = config.NewBatchConfig()
	}
	return &BatchScheduler[T, R]{
		cfg:      cfg.Clone(),
		recorder: metrics.NewNoOpMetricRecorder(),
		tracer:   metrics.NewNoOpTracer(),
		stats:    retry.SharedCollector(),
	}
}

// SetMetricRecorder injects the metric recorder used by subsequent runs.
func (s *BatchScheduler[T, R]) SetMetricRecorder(recorder metrics.MetricRecorder) {
	if recorder != nil {
		s.recorder = recorder
	}
}

// SetTracer injects the tracer used by subsequent runs.
func (s *BatchScheduler[T, R]) SetTracer(tracer metrics.Tracer) {
	if tracer != nil {
		s.tracer = tracer
	}
}

// SetStatsCollector injects the retry stats collector used by subsequent runs.
// By default the scheduler reports to the process-wide shared collector.
func (s *BatchScheduler[T, R]) SetStatsCollector(stats retry.StatsCollector) {
	if stats != nil {
		s.stats = stats
	}
}

// SetMemorySampler injects the heap usage sampler used by subsequent runs.
func (s *BatchScheduler[T, R]) SetMemorySampler(sampler memory.Sampler) {
	s.sampler = sampler
}

// SetMemoryReclaimer injects the reclamation capability used by subsequent runs.
func (s *BatchScheduler[T, R]) SetMemoryReclaimer(reclaimer memory.Reclaimer) {
	s.reclaimer = reclaimer
}

// AddListener registers a progress listener.
// Listeners are notified in registration order; the engine never depends on them
// for correctness.
func (s *BatchScheduler[T, R]) AddListener(l ports.BatchListener) {
	if l != nil {
		s.listeners = append(s.listeners, l)
	}
}

// Config returns a copy of the scheduler's current configuration.
func (s *BatchScheduler[T, R]) Config() *config.BatchConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// ApplyProperties binds a map of string properties (per-run overrides supplied by
// the caller) onto the scheduler's configuration copy. The copy is only replaced
// if the resulting configuration validates.
func (s *BatchScheduler[T, R]) ApplyProperties(props map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := s.cfg.Clone()
	if err := configbinder.BindProperties(props, candidate); err != nil {
		return exception.NewBatchError(moduleName, "failed to apply configuration properties", err, false)
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	s.cfg = candidate
	return nil
}

// RetryStats returns a snapshot of the retry accounting the scheduler reports to.
func (s *BatchScheduler[T, R]) RetryStats() retry.Stats {
	return s.stats.Snapshot()
}

// itemOutcome is the settled result of one item within a chunk.
type itemOutcome[T, R any] struct {
	item  T
	value R
	err   error
}

// Execute runs the batch: it splits items into consecutive chunks of the
// configured batch size and processes the chunks strictly sequentially. Within a
// chunk every item runs concurrently, gated by a fresh semaphore sized to the
// configured concurrency and wrapped by the retry executor racing the processor
// against the per-attempt timeout.
//
// A single item's exhausted retries never aborts the batch; the item is recorded
// in the result's Failed list and processing continues. Only orchestration
// errors (invalid configuration, context cancellation at a pacing point) abort
// the remaining chunks and propagate to the caller, in which case no result is
// returned.
func (s *BatchScheduler[T, R]) Execute(ctx context.Context, items []T, processor Processor[T, R]) (*model.BatchResult[T, R], error) {
	if processor == nil {
		return nil, exception.NewBatchError(moduleName, "processor must not be nil", nil, false)
	}

	// Snapshot the configuration: a run's configuration is immutable once started.
	s.mu.Lock()
	cfg := s.cfg.Clone()
	s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid batch configuration", err, false)
	}

	execution := model.NewRunExecution(uuid.New().String(), len(items))
	chunks := chunkItems(items, cfg.BatchSize)
	execution.ChunkCount = len(chunks)

	monitor := memory.NewMonitor(s.sampler, s.reclaimer)
	sem := semaphore.New(int64(cfg.MaxConcurrency))

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	// BatchConfig.RetryAttempts governs the per-item retry budget; the nested
	// retry section supplies strategy, delays and matchers.
	policy := retry.FromConfig(cfg.Retry)
	policy.MaxRetries = cfg.RetryAttempts

	runCtx, endRunSpan := s.tracer.StartRunSpan(ctx, execution)
	defer endRunSpan()

	policy.OnRetry = func(attempt int, err error) {
		reason := "transient"
		if exception.IsAttemptTimeout(err) {
			reason = "timeout"
		}
		s.recorder.RecordItemRetry(runCtx, reason)
		for _, l := range s.listeners {
			l.OnItemRetry(runCtx, execution, attempt, err)
		}
	}
	executor := retry.NewExecutor(policy, s.stats)

	delay := time.Duration(cfg.DelayMs) * time.Millisecond

	execution.MarkAsStarted()
	s.recorder.RecordRunStart(runCtx, execution)
	for _, l := range s.listeners {
		l.OnBatchStart(runCtx, execution)
	}
	logger.Infof("Batch run '%s' starting: %d items in %d chunks (chunk size %d, concurrency %d).",
		execution.ID, len(items), len(chunks), cfg.BatchSize, cfg.MaxConcurrency)

	start := time.Now()
	var successValues []R
	var failed []model.FailedItem[T]
	processed := 0

	for ci, chunk := range chunks {
		// Memory backpressure: sample, reclaim, and relieve pressure with a
		// doubled pacing delay before the chunk starts.
		sample := monitor.UpdatePeak()
		if sample > float64(cfg.MemoryThresholdMB) {
			reclaimed := monitor.ForceReclaim()
			logger.Warnf("Batch run '%s': memory usage %.1f MB exceeds threshold %d MB before chunk %d (reclaimed: %t). Applying pressure-relief delay.",
				execution.ID, sample, cfg.MemoryThresholdMB, ci, reclaimed)
			s.recorder.RecordMemoryPressure(runCtx, sample, float64(cfg.MemoryThresholdMB))
			s.tracer.RecordEvent(runCtx, "memory_pressure", map[string]interface{}{
				"current_mb":   sample,
				"threshold_mb": cfg.MemoryThresholdMB,
				"reclaimed":    reclaimed,
			})
			for _, l := range s.listeners {
				l.OnMemoryPressure(runCtx, execution, sample, float64(cfg.MemoryThresholdMB))
			}
			if err := sleepContext(runCtx, 2*delay); err != nil {
				return nil, s.abort(runCtx, execution, "cancelled during pressure-relief delay", err)
			}
		}

		chunkCtx, endChunkSpan := s.tracer.StartChunkSpan(runCtx, ci, len(chunk))
		chunkStart := time.Now()
		outcomes := s.processChunk(chunkCtx, executor, sem, limiter, cfg, chunk, processor)
		endChunkSpan()
		s.recorder.RecordDuration(runCtx, "chunk_duration", time.Since(chunkStart), map[string]string{"chunk": strconv.Itoa(ci)})

		// Partition outcomes. Items may settle out of order under bounded
		// concurrency; collecting by slot restores input order in the aggregates.
		for _, oc := range outcomes {
			if oc.err != nil {
				failed = append(failed, model.FailedItem[T]{Item: oc.item, Error: exception.ExtractErrorMessage(oc.err)})
				s.recorder.RecordItemFailure(chunkCtx)
			} else {
				successValues = append(successValues, oc.value)
				s.recorder.RecordItemSuccess(chunkCtx)
			}
		}
		processed += len(chunk)
		execution.SucceededCount = len(successValues)
		execution.FailedCount = len(failed)

		s.recorder.RecordChunkComplete(runCtx, ci, len(chunk))
		for _, l := range s.listeners {
			l.OnChunkComplete(runCtx, execution, ci, processed, len(items))
		}
		logger.Infof("Batch run '%s': chunk %d/%d settled (%d/%d items, %.0f%%).",
			execution.ID, ci+1, len(chunks), processed, len(items), percentage(processed, len(items)))

		// Pacing against the downstream service.
		if ci < len(chunks)-1 {
			if err := sleepContext(runCtx, delay); err != nil {
				return nil, s.abort(runCtx, execution, "cancelled during inter-chunk delay", err)
			}
		}
	}

	memStats := monitor.Stats()
	execution.PeakMemoryMB = memStats.PeakMB
	execution.MarkAsCompleted()

	result := &model.BatchResult[T, R]{
		Success:        successValues,
		Failed:         failed,
		TotalProcessed: processed,
		ExecutionTime:  time.Since(start),
		MemoryUsage:    memStats,
	}

	s.recorder.RecordRunEnd(runCtx, execution)
	for _, l := range s.listeners {
		l.OnBatchEnd(runCtx, execution)
	}
	logger.Infof("Batch run '%s' completed: %d succeeded, %d failed in %s (peak memory %.1f MB).",
		execution.ID, len(successValues), len(failed), result.ExecutionTime, memStats.PeakMB)

	return result, nil
}

// processChunk dispatches every item of the chunk concurrently, each gated by the
// run's semaphore, and waits until all of them settle. Items are dispatched in
// slice order but may settle out of order; the returned outcomes are indexed by
// the item's position in the chunk.
func (s *BatchScheduler[T, R]) processChunk(
	ctx context.Context,
	executor *retry.Executor,
	sem *semaphore.Semaphore,
	limiter *rate.Limiter,
	cfg *config.BatchConfig,
	chunk []T,
	processor Processor[T, R],
) []itemOutcome[T, R] {
	outcomes := make([]itemOutcome[T, R], len(chunk))
	var wg sync.WaitGroup

	for i, item := range chunk {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			outcomes[i].item = item

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					outcomes[i].err = err
					return
				}
			}

			if err := sem.Acquire(ctx); err != nil {
				outcomes[i].err = err
				return
			}
			// The permit is released once the attempt sequence settles,
			// success or exhausted retries alike.
			defer sem.Release()

			value, err := s.processWithRetry(ctx, executor, cfg, item, processor)
			outcomes[i].value = value
			outcomes[i].err = err
		}(i, item)
	}

	wg.Wait()
	return outcomes
}

// processWithRetry runs one item through the retry executor, racing each attempt
// against the configured per-attempt timeout.
func (s *BatchScheduler[T, R]) processWithRetry(
	ctx context.Context,
	executor *retry.Executor,
	cfg *config.BatchConfig,
	item T,
	processor Processor[T, R],
) (R, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	return retry.Do(ctx, executor, func(ctx context.Context) (R, error) {
		return runWithTimeout(ctx, timeout, cfg.TimeoutMs, item, processor)
	})
}

// runWithTimeout races a single processor invocation against the per-attempt
// timeout. A timed-out attempt is abandoned, not cancelled: the processor keeps
// running in the background and its eventual result is discarded.
func runWithTimeout[T, R any](ctx context.Context, timeout time.Duration, timeoutMs int, item T, processor Processor[T, R]) (R, error) {
	type attemptResult struct {
		value R
		err   error
	}
	resultCh := make(chan attemptResult, 1)

	go func() {
		value, err := processor(ctx, item)
		resultCh <- attemptResult{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero R
	select {
	case r := <-resultCh:
		return r.value, r.err
	case <-timer.C:
		return zero, exception.NewAttemptTimeoutError(moduleName, timeoutMs)
	}
}

// abort finalizes a run that failed at the orchestration level: the remaining
// chunks are abandoned and the error propagates to the caller instead of a result.
func (s *BatchScheduler[T, R]) abort(ctx context.Context, execution *model.RunExecution, message string, err error) error {
	wrapped := exception.NewBatchError(moduleName, message, err, false)
	execution.MarkAsFailed(wrapped)
	s.tracer.RecordError(ctx, moduleName, wrapped)
	s.recorder.RecordRunEnd(ctx, execution)
	for _, l := range s.listeners {
		l.OnBatchEnd(ctx, execution)
	}
	logger.Errorf("Batch run '%s' aborted: %v", execution.ID, wrapped)
	return wrapped
}

// chunkItems splits items into consecutive chunks of at most size elements.
// The final chunk may be smaller.
func chunkItems[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// sleepContext suspends for d, returning early with ctx.Err() on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func percentage(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
