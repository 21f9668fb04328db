// Package semaphore bounds the number of concurrently active operations within a
// batch run. Waiters are served in FIFO order, so the longest-waiting caller is
// granted the next released permit.
package semaphore

import (
	"context"

	xsemaphore "golang.org/x/sync/semaphore"
)

// Semaphore bounds concurrent operations to a fixed number of permits.
// A Semaphore is scoped to the lifetime of one scheduler invocation: the scheduler
// creates a fresh instance per run and discards it afterwards.
//
// At no instant do more than the initial permit count of callers hold an
// un-released permit. Release without a matching prior Acquire is caller misuse.
type Semaphore struct {
	permits int64
	sem     *xsemaphore.Weighted
}

// New creates a Semaphore with the given number of permits.
// permits values below 1 are raised to 1.
func New(permits int64) *Semaphore {
	if permits < 1 {
		permits = 1
	}
	return &Semaphore{
		permits: permits,
		sem:     xsemaphore.NewWeighted(permits),
	}
}

// Acquire suspends the caller until a permit is available, then takes it.
// It returns ctx.Err() if the context is cancelled while waiting; in that case
// no permit is held.
func (s *Semaphore) Acquire(ctx context.Context) error {
	return s.sem.Acquire(ctx, 1)
}

// TryAcquire takes a permit without blocking.
// Returns true if a permit was acquired, false if none were free.
func (s *Semaphore) TryAcquire() bool {
	return s.sem.TryAcquire(1)
}

// Release returns a permit, waking the longest-waiting suspended caller if any.
func (s *Semaphore) Release() {
	s.sem.Release(1)
}

// Permits returns the configured permit count.
func (s *Semaphore) Permits() int64 {
	return s.permits
}
