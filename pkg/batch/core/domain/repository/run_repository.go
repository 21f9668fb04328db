// Package repository defines the persistence interfaces of the batch engine.
// The engine itself only ever writes completed run summaries; storage backends
// live under infrastructure/repository.
package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// ErrRunNotFound is returned when a run execution with the given ID does not exist.
var ErrRunNotFound = errors.New("run execution not found")

// RunRepository persists and retrieves batch run executions.
type RunRepository interface {
	// SaveRun persists a run execution, inserting or updating by ID.
	//
	// ctx: The context for the operation.
	// execution: The run execution to persist.
	SaveRun(ctx context.Context, execution *model.RunExecution) error

	// FindRun retrieves a run execution by its ID.
	// Returns ErrRunNotFound if no run with the given ID exists.
	//
	// ctx: The context for the operation.
	// id: The run execution ID.
	FindRun(ctx context.Context, id string) (*model.RunExecution, error)

	// ListRuns retrieves the most recent run executions, newest first.
	//
	// ctx: The context for the operation.
	// limit: The maximum number of runs to return. 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]*model.RunExecution, error)

	// Close releases resources used by the repository.
	Close() error
}
