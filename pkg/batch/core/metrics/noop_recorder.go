package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordRunStart does nothing.
func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, execution *model.RunExecution) {}

// RecordRunEnd does nothing.
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, execution *model.RunExecution) {}

// RecordChunkComplete does nothing.
func (r *NoOpMetricRecorder) RecordChunkComplete(ctx context.Context, chunkIndex, size int) {}

// RecordItemSuccess does nothing.
func (r *NoOpMetricRecorder) RecordItemSuccess(ctx context.Context) {}

// RecordItemFailure does nothing.
func (r *NoOpMetricRecorder) RecordItemFailure(ctx context.Context) {}

// RecordItemRetry does nothing.
func (r *NoOpMetricRecorder) RecordItemRetry(ctx context.Context, reason string) {}

// RecordMemoryPressure does nothing.
func (r *NoOpMetricRecorder) RecordMemoryPressure(ctx context.Context, currentMB, thresholdMB float64) {
}

// RecordDuration does nothing.
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartRunSpan starts a Span for a batch run.
func (t *NoOpTracer) StartRunSpan(ctx context.Context, execution *model.RunExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartChunkSpan starts a Span for a single chunk.
func (t *NoOpTracer) StartChunkSpan(ctx context.Context, chunkIndex, size int) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError records an error in the current Span.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent records an event in the current Span.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
