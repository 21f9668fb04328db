// Package logging provides a BatchListener that reports run progress through
// the engine's logger.
package logging

import (
	"context"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	ports "github.com/tigerroll/riptide/pkg/batch/core/ports"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

// LoggingBatchListener logs every progress event of a batch run.
type LoggingBatchListener struct{}

// NewLoggingBatchListener creates a new LoggingBatchListener.
func NewLoggingBatchListener() ports.BatchListener {
	return &LoggingBatchListener{}
}

func (l *LoggingBatchListener) OnBatchStart(ctx context.Context, execution *model.RunExecution) {
	logger.Infof("BatchListener: OnBatchStart - Run: %s, Items: %d, Chunks: %d", execution.ID, execution.TotalItems, execution.ChunkCount)
}

func (l *LoggingBatchListener) OnChunkComplete(ctx context.Context, execution *model.RunExecution, chunkIndex, processed, total int) {
	logger.Debugf("BatchListener: OnChunkComplete - Run: %s, Chunk: %d, Progress: %d/%d", execution.ID, chunkIndex, processed, total)
}

func (l *LoggingBatchListener) OnMemoryPressure(ctx context.Context, execution *model.RunExecution, currentMB, thresholdMB float64) {
	logger.Warnf("BatchListener: OnMemoryPressure - Run: %s, Usage: %.1f MB, Threshold: %.0f MB", execution.ID, currentMB, thresholdMB)
}

func (l *LoggingBatchListener) OnItemRetry(ctx context.Context, execution *model.RunExecution, attempt int, err error) {
	logger.Warnf("BatchListener: OnItemRetry - Run: %s, Attempt: %d, Error: %v", execution.ID, attempt+1, err)
}

func (l *LoggingBatchListener) OnBatchEnd(ctx context.Context, execution *model.RunExecution) {
	logger.Infof("BatchListener: OnBatchEnd - Run: %s, Status: %s, Succeeded: %d, Failed: %d", execution.ID, execution.Status, execution.SucceededCount, execution.FailedCount)
}

var _ ports.BatchListener = (*LoggingBatchListener)(nil)
