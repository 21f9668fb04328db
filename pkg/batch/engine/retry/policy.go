package retry

import (
	"errors"
	"math/rand"
	"time"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	"github.com/tigerroll/riptide/pkg/batch/support/util/exception"
)

// BackoffStrategy maps a retry attempt number to a pre-jitter delay duration.
type BackoffStrategy string

const (
	// BackoffFixed always waits the base delay.
	BackoffFixed BackoffStrategy = "fixed"
	// BackoffLinear waits base*(attempt+1).
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential waits base*2^attempt.
	BackoffExponential BackoffStrategy = "exponential"
)

// jitterFraction is the upper bound of the uniform random jitter added to each
// backoff delay, as a fraction of the pre-jitter delay. Jitter avoids synchronized
// retry storms when many items fail at once.
const jitterFraction = 0.10

// Policy defines how a failed operation is retried: how many times, with which
// backoff strategy, and which errors count as transient.
type Policy struct {
	// MaxRetries is the maximum number of retries after the first attempt.
	MaxRetries int
	// Strategy selects how the delay grows between attempts.
	Strategy BackoffStrategy
	// BaseDelay is the base backoff delay.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay, after jitter.
	MaxDelay time.Duration
	// RetryableMatchers classify errors as transient. Each entry is matched
	// case-insensitively against the error message, a registered sentinel name,
	// or the error's type name (see exception.IsErrorOfType).
	RetryableMatchers []string
	// OnRetry, if set, is invoked before each backoff delay with the zero-based
	// index of the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// NewPolicy returns a Policy populated with the engine defaults:
// 3 retries, exponential backoff from 1s capped at 10s, and the default
// transient-network matcher set.
func NewPolicy() *Policy {
	return &Policy{
		MaxRetries:        3,
		Strategy:          BackoffExponential,
		BaseDelay:         time.Second,
		MaxDelay:          10 * time.Second,
		RetryableMatchers: append([]string(nil), config.DefaultRetryableMatchers...),
	}
}

// FromConfig builds a Policy from the engine configuration.
// Zero or empty fields fall back to the defaults of NewPolicy.
//
// cfg: The retry configuration section.
// Returns: A new Policy instance.
func FromConfig(cfg config.RetryConfig) *Policy {
	p := NewPolicy()
	if cfg.MaxRetries > 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.BackoffStrategy != "" {
		p.Strategy = BackoffStrategy(cfg.BackoffStrategy)
	}
	if cfg.BaseDelayMs > 0 {
		p.BaseDelay = time.Duration(cfg.BaseDelayMs) * time.Millisecond
	}
	if cfg.MaxDelayMs > 0 {
		p.MaxDelay = time.Duration(cfg.MaxDelayMs) * time.Millisecond
	}
	if cfg.RetryableExceptions != nil {
		p.RetryableMatchers = append([]string(nil), cfg.RetryableExceptions...)
	}
	return p
}

// ShouldRetry determines if a given error is retryable under this policy.
// The determination is based on the IsRetryable flag of BatchError, or by matching
// against the configured retryable matchers.
// err: The error to evaluate.
// Returns: true if the error is retryable, false otherwise.
func (p *Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// 1. Check BatchError flag
	var be *exception.BatchError
	if errors.As(err, &be) && be.IsRetryable() {
		return true
	}

	// 2. Match against configured retryable matchers
	for _, matcher := range p.RetryableMatchers {
		if exception.IsErrorOfType(err, matcher) {
			return true
		}
	}

	return false
}

// BackoffDelay returns the pre-jitter delay before retry attempt number `attempt`
// (zero-based), clamped to MaxDelay.
// fixed: base; linear: base*(attempt+1); exponential: base*2^attempt.
func (p *Policy) BackoffDelay(attempt int) time.Duration {
	var delay time.Duration
	switch p.Strategy {
	case BackoffLinear:
		delay = p.BaseDelay * time.Duration(attempt+1)
	case BackoffFixed:
		delay = p.BaseDelay
	default: // exponential
		delay = p.BaseDelay << uint(attempt)
	}
	// A large attempt index overflows the exponential shift into a non-positive
	// duration; treat overflow as beyond the cap.
	if p.MaxDelay > 0 && (delay <= 0 || delay > p.MaxDelay) {
		delay = p.MaxDelay
	}
	return delay
}

// NextDelay returns the delay before retry attempt number `attempt` (zero-based)
// with uniform random jitter in [0, 10% of the pre-jitter delay] added, clamped
// to MaxDelay.
func (p *Policy) NextDelay(attempt int) time.Duration {
	delay := p.BackoffDelay(attempt)
	delay += time.Duration(rand.Float64() * jitterFraction * float64(delay))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
