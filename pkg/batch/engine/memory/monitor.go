// Package memory samples process heap usage, tracks a running peak, detects
// threshold breaches, and requests best-effort reclamation. Sampling and
// reclamation are capabilities injected by the application; the defaults read
// the Go runtime's own counters.
package memory

import (
	"runtime"
	"runtime/debug"
	"sync"

	model "github.com/tigerroll/riptide/pkg/batch/core/domain/model"
)

// Sampler exposes the current heap usage in megabytes.
type Sampler interface {
	// SampleMB returns the current heap usage in megabytes.
	SampleMB() float64
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func() float64

// SampleMB returns the current heap usage in megabytes.
func (f SamplerFunc) SampleMB() float64 {
	return f()
}

// RuntimeSampler reads the heap usage of the current process via runtime.ReadMemStats.
type RuntimeSampler struct{}

// NewRuntimeSampler creates a Sampler backed by the Go runtime's memory counters.
func NewRuntimeSampler() Sampler {
	return &RuntimeSampler{}
}

// SampleMB returns the current heap allocation in megabytes.
func (s *RuntimeSampler) SampleMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / (1024 * 1024)
}

// Reclaimer is a best-effort manual memory reclamation capability.
// Host runtimes that expose no reclamation control use NoOpReclaimer.
type Reclaimer interface {
	// Reclaim attempts to release memory and reports whether a reclamation ran.
	Reclaim() bool
}

// RuntimeReclaimer forces a garbage collection cycle and returns freed memory
// to the operating system.
type RuntimeReclaimer struct{}

// NewRuntimeReclaimer creates a Reclaimer backed by the Go runtime.
func NewRuntimeReclaimer() Reclaimer {
	return &RuntimeReclaimer{}
}

// Reclaim runs a GC cycle and releases as much memory to the OS as possible.
func (r *RuntimeReclaimer) Reclaim() bool {
	runtime.GC()
	debug.FreeOSMemory()
	return true
}

// NoOpReclaimer is a Reclaimer that does nothing.
type NoOpReclaimer struct{}

// NewNoOpReclaimer creates a Reclaimer that does nothing.
func NewNoOpReclaimer() Reclaimer {
	return &NoOpReclaimer{}
}

// Reclaim does nothing and reports that no reclamation ran.
func (r *NoOpReclaimer) Reclaim() bool {
	return false
}

// Monitor tracks heap usage over the lifetime of one batch run.
// It samples lazily on demand and mutates no shared state besides its own peak.
type Monitor struct {
	sampler   Sampler
	reclaimer Reclaimer

	mu        sync.Mutex
	initialMB float64
	peakMB    float64
}

// NewMonitor creates a Monitor and samples the initial heap usage.
// sampler: The heap usage source. nil uses RuntimeSampler.
// reclaimer: The reclamation capability. nil uses RuntimeReclaimer.
func NewMonitor(sampler Sampler, reclaimer Reclaimer) *Monitor {
	if sampler == nil {
		sampler = NewRuntimeSampler()
	}
	if reclaimer == nil {
		reclaimer = NewRuntimeReclaimer()
	}
	initial := sampler.SampleMB()
	return &Monitor{
		sampler:   sampler,
		reclaimer: reclaimer,
		initialMB: initial,
		peakMB:    initial,
	}
}

// Current returns a fresh heap usage sample in megabytes.
func (m *Monitor) Current() float64 {
	return m.sampler.SampleMB()
}

// UpdatePeak re-samples the heap usage and raises the running peak if the new
// sample is larger. It returns the sample taken.
func (m *Monitor) UpdatePeak() float64 {
	sample := m.sampler.SampleMB()
	m.mu.Lock()
	if sample > m.peakMB {
		m.peakMB = sample
	}
	m.mu.Unlock()
	return sample
}

// IsOverThreshold reports whether a fresh heap sample exceeds thresholdMB.
func (m *Monitor) IsOverThreshold(thresholdMB float64) bool {
	return m.sampler.SampleMB() > thresholdMB
}

// ForceReclaim requests best-effort memory reclamation and reports whether a
// reclamation actually ran.
func (m *Monitor) ForceReclaim() bool {
	return m.reclaimer.Reclaim()
}

// Stats returns the usage observed so far: the initial sample, a fresh current
// sample, and the running peak.
func (m *Monitor) Stats() model.MemoryUsage {
	current := m.sampler.SampleMB()
	m.mu.Lock()
	defer m.mu.Unlock()
	peak := m.peakMB
	if current > peak {
		peak = current
	}
	return model.MemoryUsage{
		BeforeMB: m.initialMB,
		AfterMB:  current,
		PeakMB:   peak,
	}
}
