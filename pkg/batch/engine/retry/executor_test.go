package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/riptide/pkg/batch/engine/retry"
)

// fastPolicy returns a policy with millisecond delays so tests settle quickly.
func fastPolicy(maxRetries int) *retry.Policy {
	p := retry.NewPolicy()
	p.MaxRetries = maxRetries
	p.Strategy = retry.BackoffFixed
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	p.RetryableMatchers = []string{"transient"}
	return p
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	stats := retry.NewCollector()
	e := retry.NewExecutor(fastPolicy(3), stats)

	result, err := retry.Do(context.Background(), e, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.TotalAttempts)
	assert.Equal(t, int64(0), snap.SuccessfulRetries)
	assert.Equal(t, int64(0), snap.FailedRetries)
	assert.Equal(t, float64(0), snap.AverageAttempts)
}

func TestDo_RecoversAfterTransientFailures(t *testing.T) {
	stats := retry.NewCollector()
	e := retry.NewExecutor(fastPolicy(3), stats)

	attempts := 0
	result, err := retry.Do(context.Background(), e, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient glitch")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)

	snap := stats.Snapshot()
	assert.Equal(t, int64(3), snap.TotalAttempts)
	assert.Equal(t, int64(1), snap.SuccessfulRetries)
	assert.Equal(t, int64(0), snap.FailedRetries)
	assert.Equal(t, float64(3), snap.AverageAttempts)
}

func TestDo_ExhaustsRetryBudget(t *testing.T) {
	stats := retry.NewCollector()
	e := retry.NewExecutor(fastPolicy(2), stats)

	attempts := 0
	permanent := errors.New("transient but never recovers")
	_, err := retry.Do(context.Background(), e, func(ctx context.Context) (int, error) {
		attempts++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	// MaxRetries retries plus the first attempt.
	assert.Equal(t, 3, attempts)

	snap := stats.Snapshot()
	assert.Equal(t, int64(3), snap.TotalAttempts)
	assert.Equal(t, int64(0), snap.SuccessfulRetries)
	assert.Equal(t, int64(1), snap.FailedRetries)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	stats := retry.NewCollector()
	e := retry.NewExecutor(fastPolicy(3), stats)

	attempts := 0
	fatal := errors.New("record malformed")
	_, err := retry.Do(context.Background(), e, func(ctx context.Context) (int, error) {
		attempts++
		return 0, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)

	// An immediate non-retryable failure is not a retried operation.
	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.TotalAttempts)
	assert.Equal(t, int64(0), snap.SuccessfulRetries)
	assert.Equal(t, int64(0), snap.FailedRetries)
}

func TestDo_OnRetryCallback(t *testing.T) {
	p := fastPolicy(2)
	var callbackAttempts []int
	p.OnRetry = func(attempt int, err error) {
		callbackAttempts = append(callbackAttempts, attempt)
	}
	e := retry.NewExecutor(p, retry.NewCollector())

	_, err := retry.Do(context.Background(), e, func(ctx context.Context) (int, error) {
		return 0, errors.New("transient glitch")
	})

	assert.Error(t, err)
	// Invoked before each backoff delay, not after the final attempt.
	assert.Equal(t, []int{0, 1}, callbackAttempts)
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	p := fastPolicy(3)
	p.BaseDelay = 500 * time.Millisecond
	p.MaxDelay = time.Second
	stats := retry.NewCollector()
	e := retry.NewExecutor(p, stats)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := retry.Do(ctx, e, func(ctx context.Context) (int, error) {
		cancel()
		return 0, errors.New("transient glitch")
	})

	assert.ErrorIs(t, err, context.Canceled)
	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.TotalAttempts)
	assert.Equal(t, int64(1), snap.FailedRetries)
}

func TestNewExecutor_NilDefaults(t *testing.T) {
	e := retry.NewExecutor(nil, nil)
	assert.Equal(t, retry.NewPolicy().MaxRetries, e.Policy().MaxRetries)
}

func TestCollector_SnapshotAndReset(t *testing.T) {
	c := retry.NewCollector()
	c.RecordAttempt()
	c.RecordAttempt()
	c.RecordAttempt()
	c.RecordSuccessfulRetry()
	c.RecordFailedRetry()

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.TotalAttempts)
	assert.Equal(t, int64(1), snap.SuccessfulRetries)
	assert.Equal(t, int64(1), snap.FailedRetries)
	assert.InDelta(t, 1.5, snap.AverageAttempts, 0.0001)

	c.Reset()
	snap = c.Snapshot()
	assert.Equal(t, int64(0), snap.TotalAttempts)
	assert.Equal(t, float64(0), snap.AverageAttempts)
}
