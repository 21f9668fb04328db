// Package history provides a BatchListener that persists run summaries to a
// RunRepository. The listener writes a row when the run starts and updates it
// with the final counts when the run ends, so interrupted processes still leave
// a STARTED row behind for inspection.
package history

import (
	"context"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	ports "github.com/tigerroll/riptide/pkg/batch/core/ports"
	repository "github.com/tigerroll/riptide/pkg/batch/core/domain/repository"
	logger "github.com/tigerroll/riptide/pkg/batch/support/util/logger"
)

// HistoryBatchListener persists run executions through a RunRepository.
// Persistence failures are logged and swallowed; run history is an observability
// surface and must never fail a batch.
type HistoryBatchListener struct {
	repo repository.RunRepository
}

// NewHistoryBatchListener creates a new HistoryBatchListener.
func NewHistoryBatchListener(repo repository.RunRepository) ports.BatchListener {
	return &HistoryBatchListener{repo: repo}
}

func (l *HistoryBatchListener) OnBatchStart(ctx context.Context, execution *model.RunExecution) {
	if err := l.repo.SaveRun(ctx, execution); err != nil {
		logger.Errorf("HistoryBatchListener: failed to persist start of run '%s': %v", execution.ID, err)
	}
}

func (l *HistoryBatchListener) OnChunkComplete(ctx context.Context, execution *model.RunExecution, chunkIndex, processed, total int) {
	// Intermediate progress is not persisted; only start and end rows are written.
}

func (l *HistoryBatchListener) OnMemoryPressure(ctx context.Context, execution *model.RunExecution, currentMB, thresholdMB float64) {
}

func (l *HistoryBatchListener) OnItemRetry(ctx context.Context, execution *model.RunExecution, attempt int, err error) {
}

func (l *HistoryBatchListener) OnBatchEnd(ctx context.Context, execution *model.RunExecution) {
	if err := l.repo.SaveRun(ctx, execution); err != nil {
		logger.Errorf("HistoryBatchListener: failed to persist end of run '%s': %v", execution.ID, err)
	}
}

var _ ports.BatchListener = (*HistoryBatchListener)(nil)
