// Package load contains the demo workload: a synthetic record set and a
// processor that simulates a flaky downstream service.
package load

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Record is one unit of work for the demo loader.
type Record struct {
	ID      int
	Payload string
}

// GenerateRecords produces n synthetic records.
func GenerateRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ID:      i + 1,
			Payload: fmt.Sprintf("payload-%04d", i+1),
		}
	}
	return records
}

// FlakyStore simulates a downstream service that intermittently refuses
// connections. Each record fails with the configured probability on every
// attempt, so retries usually succeed eventually.
type FlakyStore struct {
	failureRate float64
	latency     time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	stored int
}

// NewFlakyStore creates a FlakyStore.
// failureRate: The per-attempt probability of a transient failure, in [0, 1].
// latency: The simulated per-call latency.
func NewFlakyStore(failureRate float64, latency time.Duration) *FlakyStore {
	return &FlakyStore{
		failureRate: failureRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Store writes one record, returning a confirmation token.
// Transient failures surface as "connection refused" errors, which the engine's
// default retry matchers classify as retryable.
func (s *FlakyStore) Store(ctx context.Context, record Record) (string, error) {
	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.mu.Lock()
	flaky := s.rng.Float64() < s.failureRate
	if !flaky {
		s.stored++
	}
	s.mu.Unlock()

	if flaky {
		return "", fmt.Errorf("store record %d: connection refused", record.ID)
	}
	return fmt.Sprintf("stored:%d", record.ID), nil
}

// StoredCount returns the number of records accepted so far.
func (s *FlakyStore) StoredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored
}
