package routing

import "sync"

// WorkloadTracker counts currently assigned, unreleased requests per
// approver. It is the only mutable state in the engine: process-lifetime
// memory, reset only by an explicit Reset, with no relation to any
// persisted assignment record.
type WorkloadTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewWorkloadTracker creates an empty tracker.
func NewWorkloadTracker() *WorkloadTracker {
	return &WorkloadTracker{counts: make(map[string]int)}
}

// WorkloadOf returns the current count for an approver; unseen approvers
// have workload 0.
func (t *WorkloadTracker) WorkloadOf(approverID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[approverID]
}

// Increment marks the approver one request busier and returns the new
// count.
func (t *WorkloadTracker) Increment(approverID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[approverID]++
	return t.counts[approverID]
}

// Release marks one request complete for the approver. The count never
// goes below zero; releasing an untracked approver is a no-op.
func (t *WorkloadTracker) Release(approverID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[approverID] > 0 {
		t.counts[approverID]--
	}
	if t.counts[approverID] == 0 {
		delete(t.counts, approverID)
	}
}

// Snapshot returns a copy of the full counter table for monitoring.
func (t *WorkloadTracker) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		out[id] = n
	}
	return out
}

// Reset clears all counts.
func (t *WorkloadTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int)
}
