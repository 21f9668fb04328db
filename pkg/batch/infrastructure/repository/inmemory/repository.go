// Package inmemory provides an in-memory implementation of the RunRepository
// interface. It stores run executions in a map, suitable for testing and
// scenarios where run history does not need to survive the process.
package inmemory

import (
	"context"
	"sort"
	"sync"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/riptide/pkg/batch/core/domain/repository"
)

// InMemoryRunRepository is an in-memory implementation of the RunRepository interface.
type InMemoryRunRepository struct {
	runs map[string]*model.RunExecution
	mu   sync.RWMutex // Protects concurrent access to the map.
}

// NewInMemoryRunRepository creates and initializes a new InMemoryRunRepository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs: make(map[string]*model.RunExecution),
	}
}

// SaveRun persists a run execution, inserting or updating by ID.
// The stored value is a copy, so later mutation by the engine does not leak
// into the repository.
func (r *InMemoryRunRepository) SaveRun(ctx context.Context, execution *model.RunExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *execution
	r.runs[execution.ID] = &stored
	return nil
}

// FindRun retrieves a run execution by its ID.
func (r *InMemoryRunRepository) FindRun(ctx context.Context, id string) (*model.RunExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	found := *stored
	return &found, nil
}

// ListRuns retrieves the most recent run executions, newest first.
func (r *InMemoryRunRepository) ListRuns(ctx context.Context, limit int) ([]*model.RunExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*model.RunExecution, 0, len(r.runs))
	for _, stored := range r.runs {
		run := *stored
		runs = append(runs, &run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close releases resources used by the repository.
// As an in-memory repository it holds no external resources, so this always returns nil.
func (r *InMemoryRunRepository) Close() error {
	return nil
}

var _ repository.RunRepository = (*InMemoryRunRepository)(nil)
