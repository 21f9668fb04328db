package retry

import "sync"

// Stats is a point-in-time snapshot of retry accounting.
type Stats struct {
	// TotalAttempts is the number of operation attempts executed, including first attempts.
	TotalAttempts int64
	// SuccessfulRetries is the number of operations that succeeded after at least one retry.
	SuccessfulRetries int64
	// FailedRetries is the number of operations that exhausted their retry budget.
	FailedRetries int64
	// AverageAttempts is TotalAttempts divided by the number of retried operations
	// (successful + failed), or 0 when no operation has been retried to settlement.
	AverageAttempts float64
}

// StatsCollector accumulates retry accounting across executor invocations.
// Collectors are injectable so that concurrent batch runs can opt into isolated
// or shared accounting as needed; the package-level shared collector commingles
// statistics from every run that uses it.
type StatsCollector interface {
	// RecordAttempt records one operation attempt.
	RecordAttempt()
	// RecordSuccessfulRetry records an operation that succeeded after at least one retry.
	RecordSuccessfulRetry()
	// RecordFailedRetry records an operation that exhausted its retry budget.
	RecordFailedRetry()
	// Snapshot returns the current statistics.
	Snapshot() Stats
	// Reset clears all accumulated statistics.
	Reset()
}

// Collector is the default mutex-guarded StatsCollector implementation.
type Collector struct {
	mu                sync.Mutex
	totalAttempts     int64
	successfulRetries int64
	failedRetries     int64
}

// NewCollector creates an isolated stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// sharedCollector is the process-wide accounting surface used when no collector is injected.
var sharedCollector = NewCollector()

// SharedCollector returns the process-wide stats collector.
// Every scheduler that does not inject its own collector reports here, so
// concurrent runs commingle their statistics.
func SharedCollector() StatsCollector {
	return sharedCollector
}

// RecordAttempt records one operation attempt.
func (c *Collector) RecordAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalAttempts++
}

// RecordSuccessfulRetry records an operation that succeeded after at least one retry.
func (c *Collector) RecordSuccessfulRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successfulRetries++
}

// RecordFailedRetry records an operation that exhausted its retry budget.
func (c *Collector) RecordFailedRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRetries++
}

// Snapshot returns the current statistics.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		TotalAttempts:     c.totalAttempts,
		SuccessfulRetries: c.successfulRetries,
		FailedRetries:     c.failedRetries,
	}
	if settled := c.successfulRetries + c.failedRetries; settled > 0 {
		s.AverageAttempts = float64(c.totalAttempts) / float64(settled)
	}
	return s
}

// Reset clears all accumulated statistics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalAttempts = 0
	c.successfulRetries = 0
	c.failedRetries = 0
}

var _ StatsCollector = (*Collector)(nil)
