// Package ports defines the outbound interfaces through which the batch engine
// reports progress to its collaborators. Implementations are injected by the
// application; the engine never depends on them for correctness.
package ports

import (
	"context"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// BatchListener receives progress and warning events from a batch run.
// All methods are notifications only; returned state is never consulted by the engine,
// and implementations must not block for long periods.
type BatchListener interface {
	// OnBatchStart is called once, after the run is validated and before the first chunk.
	OnBatchStart(ctx context.Context, execution *model.RunExecution)

	// OnChunkComplete is called after each chunk settles.
	// processed is the number of items settled so far, total the overall item count.
	OnChunkComplete(ctx context.Context, execution *model.RunExecution, chunkIndex, processed, total int)

	// OnMemoryPressure is called when a pre-chunk sample exceeds the configured threshold.
	OnMemoryPressure(ctx context.Context, execution *model.RunExecution, currentMB, thresholdMB float64)

	// OnItemRetry is called before each retry backoff delay.
	// attempt is the zero-based index of the attempt that just failed.
	OnItemRetry(ctx context.Context, execution *model.RunExecution, attempt int, err error)

	// OnBatchEnd is called once, after all chunks settle or the run aborts.
	OnBatchEnd(ctx context.Context, execution *model.RunExecution)
}
