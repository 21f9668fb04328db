package metrics

import (
	"context"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing.
// This interface provides functionality to integrate with tracing systems like OpenTelemetry,
// enabling visualization of batch run and chunk execution flows.
type Tracer interface {
	// StartRunSpan starts a Span for a batch run.
	//
	// ctx: The parent context.
	// execution: The run to be traced.
	//
	// Returns: A context with the new Span set, and a function to end the Span.
	//          It is recommended to call the returned function in a defer statement.
	StartRunSpan(ctx context.Context, execution *model.RunExecution) (context.Context, func())

	// StartChunkSpan starts a Span for a single chunk within a run.
	//
	// ctx: The parent context (typically a context with a run Span).
	// chunkIndex: The zero-based index of the chunk.
	// size: The number of items in the chunk.
	//
	// Returns: A context with the new Span set, and a function to end the Span.
	StartChunkSpan(ctx context.Context, chunkIndex, size int) (context.Context, func())

	// RecordError records an error in the current Span.
	//
	// ctx: The context with the current Span.
	// module: The name of the module or component where the error occurred (e.g., "scheduler", "processor").
	// err: The error to record.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current Span.
	//
	// ctx: The context with the current Span.
	// name: The name of the event (e.g., "memory_pressure", "chunk_pacing").
	// attributes: Additional attributes to associate with the event.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
