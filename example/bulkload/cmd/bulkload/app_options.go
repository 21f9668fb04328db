package main

import (
	"context"
	"time"

	"go.uber.org/fx"

	load "github.com/tigerroll/riptide/example/bulkload/internal/load"
	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	metrics "github.com/tigerroll/riptide/pkg/batch/core/metrics"
	ports "github.com/tigerroll/riptide/pkg/batch/core/ports"
	scheduler "github.com/tigerroll/riptide/pkg/batch/engine/scheduler"
	infraMetrics "github.com/tigerroll/riptide/pkg/batch/infrastructure/metrics"
	inmemoryRepo "github.com/tigerroll/riptide/pkg/batch/infrastructure/repository/inmemory"
	historyListener "github.com/tigerroll/riptide/pkg/batch/listener/history"
	loggingListener "github.com/tigerroll/riptide/pkg/batch/listener/logging"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

const demoRecordCount = 50

// batchParams collects the dependencies of the demo batch from the Fx container.
type batchParams struct {
	fx.In
	Shutdowner fx.Shutdowner
	Lifecycle  fx.Lifecycle
	BatchCfg   *config.BatchConfig
	Recorder   metrics.MetricRecorder
	Tracer     metrics.Tracer
	Listeners  []ports.BatchListener `group:"batch_listeners"`
	AppCtx     context.Context       `name:"appCtx"`
}

// runBatch is an Fx hook that executes the demo load when the application starts.
func runBatch(params batchParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in batch execution: %v", r)
					}
					logger.Infof("Requesting application shutdown after batch completion.")
					if err := params.Shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				store := load.NewFlakyStore(0.2, 20*time.Millisecond)
				records := load.GenerateRecords(demoRecordCount)

				engine := scheduler.New[load.Record, string](params.BatchCfg)
				engine.SetMetricRecorder(params.Recorder)
				engine.SetTracer(params.Tracer)
				for _, l := range params.Listeners {
					engine.AddListener(l)
				}

				result, err := engine.Execute(params.AppCtx, records, store.Store)
				if err != nil {
					logger.Errorf("Batch execution aborted: %v", err)
					return
				}

				logger.Infof("Loaded %d/%d records (%d failed) in %s.",
					len(result.Success), result.TotalProcessed, len(result.Failed), result.ExecutionTime)
				stats := engine.RetryStats()
				logger.Infof("Retry stats: %d attempts, %d recovered, %d exhausted (avg %.2f attempts per retried item).",
					stats.TotalAttempts, stats.SuccessfulRetries, stats.FailedRetries, stats.AverageAttempts)

				// Let the next run benefit from what this one observed.
				engine.AdaptiveOptimize(result.MemoryUsage.PeakMB, result.ExecutionTime)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// GetApplicationOptions builds the uber-fx options for the demo application.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, config.Module)
	options = append(options, infraMetrics.Module)
	options = append(options, inmemoryRepo.Module)
	options = append(options, loggingListener.Module)
	options = append(options, historyListener.Module)
	options = append(options, fx.Invoke(runBatch))

	return options
}
