package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to batch execution.
//
// This interface provides a standardized way to record metrics for run, chunk and
// item-level events, as well as memory-pressure incidents observed by the engine.
// This facilitates integration with different metrics backends (e.g., Prometheus,
// OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordRunStart records the start of a batch run.
	//
	// ctx: The context for the operation.
	// execution: Details of the started run.
	RecordRunStart(ctx context.Context, execution *model.RunExecution)

	// RecordRunEnd records the end of a batch run.
	//
	// ctx: The context for the operation.
	// execution: Details of the ended run.
	RecordRunEnd(ctx context.Context, execution *model.RunExecution)

	// RecordChunkComplete records the settlement of one chunk.
	//
	// ctx: The context for the operation.
	// chunkIndex: The zero-based index of the chunk.
	// size: The number of items in the chunk.
	RecordChunkComplete(ctx context.Context, chunkIndex, size int)

	// RecordItemSuccess records the successful settlement of an item.
	//
	// ctx: The context for the operation.
	RecordItemSuccess(ctx context.Context)

	// RecordItemFailure records the failed settlement of an item.
	//
	// ctx: The context for the operation.
	RecordItemFailure(ctx context.Context)

	// RecordItemRetry records the retry of an item attempt.
	//
	// ctx: The context for the operation.
	// reason: A string indicating the reason for the retry (e.g., error class).
	RecordItemRetry(ctx context.Context, reason string)

	// RecordMemoryPressure records a memory-threshold breach observed before a chunk.
	//
	// ctx: The context for the operation.
	// currentMB: The sampled heap usage in megabytes.
	// thresholdMB: The configured threshold in megabytes.
	RecordMemoryPressure(ctx context.Context, currentMB, thresholdMB float64)

	// RecordDuration records the execution time of a specific operation.
	//
	// ctx: The context for the operation.
	// name: The name of the duration to record (e.g., "chunk_duration").
	// duration: The length of the duration to record.
	// tags: A map of additional tags or attributes to associate with the duration.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
