package routing

import "slices"

// ApproverSelector chooses one approver from a candidate set and marks it
// busier in the workload tracker.
type ApproverSelector struct {
	workloads *WorkloadTracker
}

// NewApproverSelector creates a selector over the given tracker.
func NewApproverSelector(workloads *WorkloadTracker) *ApproverSelector {
	return &ApproverSelector{workloads: workloads}
}

// Select picks one candidate and increments its workload, returning the
// chosen approver and its workload after the increment. Returns nil when
// the candidate set is empty.
//
// A single candidate is chosen directly. URGENT requests scan for the
// strictly lowest current workload; ties go to the first candidate in
// input order. Everything else stable-sorts by workload and takes the
// head, which today selects the same least-loaded candidate; the two
// paths are kept separate so a rotation policy for equally loaded
// candidates can land on the normal path without touching the urgent one.
func (s *ApproverSelector) Select(candidates []Approver, priority Priority) (*Approver, int) {
	if len(candidates) == 0 {
		return nil, 0
	}

	var chosen Approver
	switch {
	case len(candidates) == 1:
		chosen = candidates[0]
	case priority == PriorityUrgent:
		chosen = s.leastLoaded(candidates)
	default:
		chosen = s.headByWorkload(candidates)
	}

	return &chosen, s.workloads.Increment(chosen.ID)
}

// leastLoaded returns the first candidate with the minimum workload.
func (s *ApproverSelector) leastLoaded(candidates []Approver) Approver {
	loads := s.workloads.Snapshot()

	best := candidates[0]
	bestLoad := loads[best.ID]
	for _, c := range candidates[1:] {
		if loads[c.ID] < bestLoad {
			best = c
			bestLoad = loads[c.ID]
		}
	}
	return best
}

// headByWorkload stable-sorts candidates ascending by workload and takes
// the head, preserving input order among equals.
func (s *ApproverSelector) headByWorkload(candidates []Approver) Approver {
	loads := s.workloads.Snapshot()

	sorted := make([]Approver, len(candidates))
	copy(sorted, candidates)
	slices.SortStableFunc(sorted, func(a, b Approver) int {
		return loads[a.ID] - loads[b.ID]
	})
	return sorted[0]
}
