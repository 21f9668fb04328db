package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	infraMetrics "github.com/tigerroll/riptide/pkg/batch/infrastructure/metrics"
)

func TestPrometheusRecorder_RecordsRunLifecycle(t *testing.T) {
	recorder := infraMetrics.NewPrometheusRecorder().(*infraMetrics.PrometheusRecorder)
	ctx := context.Background()

	execution := model.NewRunExecution("run-1", 10)
	execution.MarkAsStarted()
	recorder.RecordRunStart(ctx, execution)

	recorder.RecordChunkComplete(ctx, 0, 5)
	recorder.RecordItemSuccess(ctx)
	recorder.RecordItemFailure(ctx)
	recorder.RecordItemRetry(ctx, "timeout")
	recorder.RecordItemRetry(ctx, "transient")
	recorder.RecordMemoryPressure(ctx, 150, 100)
	recorder.RecordDuration(ctx, "chunk_duration", 25*time.Millisecond, map[string]string{"chunk": "0"})

	execution.PeakMemoryMB = 150
	execution.MarkAsCompleted()
	recorder.RecordRunEnd(ctx, execution)

	families, err := recorder.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["batch_run_status_total"])
	assert.True(t, names["batch_run_duration_seconds"])
	assert.True(t, names["batch_chunk_total"])
	assert.True(t, names["batch_item_success_total"])
	assert.True(t, names["batch_item_failure_total"])
	assert.True(t, names["batch_item_retry_total"])
	assert.True(t, names["batch_memory_pressure_total"])
	assert.True(t, names["batch_operation_duration_seconds"])
}

func TestPrometheusRecorder_RunEndWithoutEndTimeIsIgnored(t *testing.T) {
	recorder := infraMetrics.NewPrometheusRecorder().(*infraMetrics.PrometheusRecorder)

	execution := model.NewRunExecution("run-2", 1)
	recorder.RecordRunEnd(context.Background(), execution)

	families, err := recorder.GetRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "batch_run_duration_seconds", f.GetName())
	}
}
