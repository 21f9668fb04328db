package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/riptide/pkg/batch/core/metrics"
)

const tracerName = "github.com/tigerroll/riptide"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
// Spans flow to whatever tracer provider the host application installed globally;
// without one the OTel API no-ops, so the engine never requires an exporter.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a new instance of OpenTelemetryTracer.
func NewOpenTelemetryTracer() metrics.Tracer {
	return &OpenTelemetryTracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartRunSpan starts a new span for a batch run.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, execution *model.RunExecution) (context.Context, func()) {
	spanCtx, span := t.tracer.Start(ctx, "batch.run",
		trace.WithAttributes(
			attribute.String("batch.run.id", execution.ID),
			attribute.Int("batch.run.total_items", execution.TotalItems),
			attribute.Int("batch.run.chunk_count", execution.ChunkCount),
		),
	)
	return spanCtx, func() {
		span.SetAttributes(
			attribute.String("batch.run.status", execution.Status.String()),
			attribute.Int("batch.run.succeeded", execution.SucceededCount),
			attribute.Int("batch.run.failed", execution.FailedCount),
		)
		span.End()
	}
}

// StartChunkSpan starts a new span for a single chunk within a run.
func (t *OpenTelemetryTracer) StartChunkSpan(ctx context.Context, chunkIndex, size int) (context.Context, func()) {
	spanCtx, span := t.tracer.Start(ctx, "batch.chunk",
		trace.WithAttributes(
			attribute.Int("batch.chunk.index", chunkIndex),
			attribute.Int("batch.chunk.size", size),
		),
	)
	return spanCtx, func() {
		span.End()
	}
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("batch.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for key, value := range attributes {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
