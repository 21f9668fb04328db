package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/riptide/pkg/batch/core/metrics"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
//
// Run IDs are deliberately not used as label values: every run carries a fresh
// UUID and an unbounded label set would grow the time series without bound.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Run metrics
	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec
	runPeakMemoryMB    prometheus.Gauge

	// Chunk metrics
	chunkCounter   prometheus.Counter
	chunkSizeItems prometheus.Histogram

	// Item metrics
	itemSuccessCounter prometheus.Counter
	itemFailureCounter prometheus.Counter
	itemRetryCounter   *prometheus.CounterVec

	// Engine metrics
	memoryPressureCounter    prometheus.Counter
	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_run_duration_seconds",
			Help:    "Duration of batch run executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_run_status_total",
			Help: "Total number of batch run executions by status.",
		}, []string{"status"}),
		runPeakMemoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "batch_run_peak_memory_mb",
			Help: "Peak heap usage observed during the most recent batch run, in megabytes.",
		}),
		chunkCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batch_chunk_total",
			Help: "Total chunks settled.",
		}),
		chunkSizeItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch_chunk_size_items",
			Help:    "Number of items per settled chunk.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		itemSuccessCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batch_item_success_total",
			Help: "Total items settled successfully.",
		}),
		itemFailureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batch_item_failure_total",
			Help: "Total items settled as failed after exhausting retries.",
		}),
		itemRetryCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_item_retry_total",
			Help: "Total item attempt retries by reason.",
		}, []string{"reason"}), // reason: timeout, transient
		memoryPressureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batch_memory_pressure_total",
			Help: "Total memory-threshold breaches observed between chunks.",
		}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_operation_duration_seconds",
			Help:    "Duration of named engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.runDurationSeconds)
	registry.MustRegister(r.runStatusCounter)
	registry.MustRegister(r.runPeakMemoryMB)
	registry.MustRegister(r.chunkCounter)
	registry.MustRegister(r.chunkSizeItems)
	registry.MustRegister(r.itemSuccessCounter)
	registry.MustRegister(r.itemFailureCounter)
	registry.MustRegister(r.itemRetryCounter)
	registry.MustRegister(r.memoryPressureCounter)
	registry.MustRegister(r.operationDurationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunStart records the start of a batch run.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, execution *model.RunExecution) {
	r.runStatusCounter.WithLabelValues(execution.Status.String()).Inc()
	logger.Debugf("Metrics: Run '%s' started.", execution.ID)
}

// RecordRunEnd records the end of a batch run.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, execution *model.RunExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()

	r.runStatusCounter.WithLabelValues(execution.Status.String()).Inc()
	r.runDurationSeconds.WithLabelValues(execution.Status.String()).Observe(duration)
	r.runPeakMemoryMB.Set(execution.PeakMemoryMB)

	logger.Debugf("Metrics: Run '%s' ended. Duration: %.3fs", execution.ID, duration)
}

// RecordChunkComplete records the settlement of one chunk.
func (r *PrometheusRecorder) RecordChunkComplete(ctx context.Context, chunkIndex, size int) {
	r.chunkCounter.Inc()
	r.chunkSizeItems.Observe(float64(size))
}

// RecordItemSuccess records the successful settlement of an item.
func (r *PrometheusRecorder) RecordItemSuccess(ctx context.Context) {
	r.itemSuccessCounter.Inc()
}

// RecordItemFailure records the failed settlement of an item.
func (r *PrometheusRecorder) RecordItemFailure(ctx context.Context) {
	r.itemFailureCounter.Inc()
}

// RecordItemRetry records the retry of an item attempt.
func (r *PrometheusRecorder) RecordItemRetry(ctx context.Context, reason string) {
	retryReason := "transient"
	if reason == "timeout" {
		retryReason = reason
	}
	r.itemRetryCounter.WithLabelValues(retryReason).Inc()
}

// RecordMemoryPressure records a memory-threshold breach observed before a chunk.
func (r *PrometheusRecorder) RecordMemoryPressure(ctx context.Context, currentMB, thresholdMB float64) {
	r.memoryPressureCounter.Inc()
	r.runPeakMemoryMB.Set(currentMB)
}

// RecordDuration records the execution time of a specific operation.
// Tags are intentionally not mapped to labels to keep the cardinality bounded.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDurationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
