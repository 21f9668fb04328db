package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

func TestRunExecution_Lifecycle(t *testing.T) {
	execution := model.NewRunExecution("run-1", 20)

	assert.Equal(t, model.BatchStatusStarting, execution.Status)
	assert.False(t, execution.Status.IsFinished())
	assert.Nil(t, execution.EndTime)

	execution.MarkAsStarted()
	assert.Equal(t, model.BatchStatusStarted, execution.Status)

	execution.MarkAsCompleted()
	assert.Equal(t, model.BatchStatusCompleted, execution.Status)
	assert.True(t, execution.Status.IsFinished())
	require.NotNil(t, execution.EndTime)
	assert.GreaterOrEqual(t, execution.Duration(), time.Duration(0))
}

func TestRunExecution_MarkAsFailed(t *testing.T) {
	execution := model.NewRunExecution("run-2", 5)
	execution.MarkAsFailed(errors.New("cancelled during inter-chunk delay"))

	assert.Equal(t, model.BatchStatusFailed, execution.Status)
	assert.True(t, execution.Status.IsFinished())
	assert.Contains(t, execution.FailureMessage, "cancelled")
	require.NotNil(t, execution.EndTime)
}

func TestItemState_IsTerminal(t *testing.T) {
	assert.True(t, model.ItemStateSuccess.IsTerminal())
	assert.True(t, model.ItemStateFailed.IsTerminal())
	assert.False(t, model.ItemStatePending.IsTerminal())
	assert.False(t, model.ItemStateAttempting.IsTerminal())
	assert.False(t, model.ItemStateRetryWait.IsTerminal())
}

func TestBatchResult_Err(t *testing.T) {
	clean := &model.BatchResult[int, string]{
		Success:        []string{"a", "b"},
		TotalProcessed: 2,
	}
	assert.NoError(t, clean.Err())

	dirty := &model.BatchResult[int, string]{
		Success: []string{"a"},
		Failed: []model.FailedItem[int]{
			{Item: 2, Error: "connection refused"},
			{Item: 3, Error: "timed out"},
		},
		TotalProcessed: 3,
	}
	err := dirty.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "timed out")
}
