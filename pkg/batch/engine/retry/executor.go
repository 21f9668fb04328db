// Package retry wraps a single operation with bounded retries, configurable
// backoff with jitter, and error-class filtering. Accounting flows through an
// injectable StatsCollector.
package retry

import (
	"context"
	"time"

	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

// Operation is a single retryable unit of work.
type Operation[R any] func(ctx context.Context) (R, error)

// Executor executes operations under a retry Policy, reporting accounting to a
// StatsCollector.
type Executor struct {
	policy *Policy
	stats  StatsCollector
}

// NewExecutor creates an Executor.
// policy: The retry policy to apply. nil uses NewPolicy defaults.
// stats: The stats collector to report to. nil uses the process-wide shared collector.
func NewExecutor(policy *Policy, stats StatsCollector) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	if stats == nil {
		stats = SharedCollector()
	}
	return &Executor{policy: policy, stats: stats}
}

// Policy returns the executor's retry policy.
func (e *Executor) Policy() *Policy {
	return e.policy
}

// Stats returns a snapshot of the executor's accounting.
func (e *Executor) Stats() Stats {
	return e.stats.Snapshot()
}

// Do executes op with up to policy.MaxRetries+1 attempts.
//
// Every attempt is counted unconditionally. On success the result is returned
// immediately; a success after at least one retry is recorded as a successful
// retry. A non-retryable error propagates immediately without consuming the
// remaining retry budget. A retryable error triggers a backoff delay (strategy
// plus jitter, clamped to the policy maximum) and the optional OnRetry callback
// before the next attempt. When the budget is exhausted the last error is
// recorded as a failed retry and propagated.
//
// Cancellation of ctx during a backoff delay settles the operation as failed.
func Do[R any](ctx context.Context, e *Executor, op Operation[R]) (R, error) {
	var zero R
	var lastErr error

	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		e.stats.RecordAttempt()

		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				e.stats.RecordSuccessfulRetry()
			}
			return result, nil
		}
		lastErr = err

		if !e.policy.ShouldRetry(err) {
			// Non-retryable: propagate without consuming the remaining budget.
			return zero, err
		}

		if attempt == e.policy.MaxRetries {
			break
		}

		delay := e.policy.NextDelay(attempt)
		logger.Warnf("Operation failed (attempt %d/%d), retrying in %s: %v", attempt+1, e.policy.MaxRetries+1, delay, err)
		if e.policy.OnRetry != nil {
			e.policy.OnRetry(attempt, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			e.stats.RecordFailedRetry()
			return zero, ctx.Err()
		}
	}

	e.stats.RecordFailedRetry()
	return zero, lastErr
}
