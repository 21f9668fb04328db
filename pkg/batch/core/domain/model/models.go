// Package model defines the core domain objects of the Riptide batch engine:
// run executions, per-item outcome states, and the aggregated result returned
// to the caller after a batch run settles.
package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// BatchStatus represents the state of a batch run execution.
type BatchStatus string

const (
	BatchStatusStarting  BatchStatus = "STARTING"
	BatchStatusStarted   BatchStatus = "STARTED"
	BatchStatusCompleted BatchStatus = "COMPLETED"
	BatchStatusFailed    BatchStatus = "FAILED"
	BatchStatusUnknown   BatchStatus = "UNKNOWN"
)

// String returns the string representation of the BatchStatus.
func (s BatchStatus) String() string {
	return string(s)
}

// IsFinished checks if the BatchStatus represents a finished state.
func (s BatchStatus) IsFinished() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed:
		return true
	default:
		return false
	}
}

// ItemState represents the lifecycle state of a single item within a batch run.
// An item moves PENDING -> ATTEMPTING -> (SUCCESS | RETRY_WAIT -> ATTEMPTING)* -> (SUCCESS | FAILED).
type ItemState string

const (
	ItemStatePending    ItemState = "PENDING"
	ItemStateAttempting ItemState = "ATTEMPTING"
	ItemStateRetryWait  ItemState = "RETRY_WAIT"
	ItemStateSuccess    ItemState = "SUCCESS"
	ItemStateFailed     ItemState = "FAILED"
)

// String returns the ItemState as a string.
func (s ItemState) String() string {
	return string(s)
}

// IsTerminal checks if the ItemState is a terminal state.
func (s ItemState) IsTerminal() bool {
	return s == ItemStateSuccess || s == ItemStateFailed
}

// MemoryUsage holds the heap usage observed over a single batch run, in megabytes.
type MemoryUsage struct {
	// BeforeMB is the heap usage sampled when the run started.
	BeforeMB float64
	// AfterMB is the heap usage sampled when the run completed.
	AfterMB float64
	// PeakMB is the highest heap usage sampled during the run.
	PeakMB float64
}

// FailedItem records a single item whose processing failed after its retry budget
// was exhausted (or failed immediately with a non-retryable error).
// The originating item value is retained for correlation regardless of completion order.
type FailedItem[T any] struct {
	// Item is the original input item value.
	Item T
	// Error is the message of the final error produced for this item.
	Error string
}

// BatchResult is the aggregated outcome of one batch run.
// It is created once, at completion of a run, and is immutable afterwards.
// Invariant: len(Success) + len(Failed) == TotalProcessed.
type BatchResult[T, R any] struct {
	// Success holds the results of all successfully processed items, in input order.
	Success []R
	// Failed holds the items whose processing ultimately failed, with their error messages.
	Failed []FailedItem[T]
	// TotalProcessed is the total number of items the run settled (success + failed).
	TotalProcessed int
	// ExecutionTime is the wall-clock duration of the run.
	ExecutionTime time.Duration
	// MemoryUsage is the heap usage observed over the run.
	MemoryUsage MemoryUsage
}

// Err aggregates the per-item failures into a single error, or returns nil if every
// item succeeded. Callers that only care about whether anything failed can use this
// instead of inspecting Failed directly.
func (r *BatchResult[T, R]) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	var combined *multierror.Error
	for _, f := range r.Failed {
		combined = multierror.Append(combined, fmt.Errorf("item %v: %s", f.Item, f.Error))
	}
	return combined.ErrorOrNil()
}

// RunExecution represents the lifecycle and summary statistics of one batch run.
// It is what listeners observe and what the run-history repository persists.
type RunExecution struct {
	// ID is the unique identifier of this run.
	ID string `gorm:"primaryKey;column:id"`
	// StartTime is when the run started.
	StartTime time.Time `gorm:"column:start_time"`
	// EndTime is when the run finished, or nil while it is still in progress.
	EndTime *time.Time `gorm:"column:end_time"`
	// Status is the current state of the run.
	Status BatchStatus `gorm:"column:status"`
	// TotalItems is the number of input items handed to the run.
	TotalItems int `gorm:"column:total_items"`
	// ChunkCount is the number of chunks the input was split into.
	ChunkCount int `gorm:"column:chunk_count"`
	// SucceededCount is the number of items that settled successfully.
	SucceededCount int `gorm:"column:succeeded_count"`
	// FailedCount is the number of items that settled as failed.
	FailedCount int `gorm:"column:failed_count"`
	// PeakMemoryMB is the highest heap usage sampled during the run.
	PeakMemoryMB float64 `gorm:"column:peak_memory_mb"`
	// FailureMessage holds the orchestration error message if the run aborted.
	FailureMessage string `gorm:"column:failure_message"`
}

// TableName returns the table name used by the run-history repository.
func (RunExecution) TableName() string {
	return "batch_run_executions"
}

// NewRunExecution creates a new RunExecution in the STARTING state.
// id: The unique identifier of the run.
// totalItems: The number of input items.
// Returns: A pointer to the new RunExecution.
func NewRunExecution(id string, totalItems int) *RunExecution {
	return &RunExecution{
		ID:         id,
		StartTime:  time.Now(),
		Status:     BatchStatusStarting,
		TotalItems: totalItems,
	}
}

// MarkAsStarted transitions the run to the STARTED state.
func (e *RunExecution) MarkAsStarted() {
	e.Status = BatchStatusStarted
}

// MarkAsCompleted transitions the run to the COMPLETED state and stamps the end time.
func (e *RunExecution) MarkAsCompleted() {
	now := time.Now()
	e.EndTime = &now
	e.Status = BatchStatusCompleted
}

// MarkAsFailed transitions the run to the FAILED state, stamps the end time,
// and records the orchestration error that aborted it.
func (e *RunExecution) MarkAsFailed(err error) {
	now := time.Now()
	e.EndTime = &now
	e.Status = BatchStatusFailed
	if err != nil {
		e.FailureMessage = err.Error()
	}
}

// Duration returns the wall-clock duration of the run, or the elapsed time so far
// if the run has not finished.
func (e *RunExecution) Duration() time.Duration {
	if e.EndTime != nil {
		return e.EndTime.Sub(e.StartTime)
	}
	return time.Since(e.StartTime)
}
