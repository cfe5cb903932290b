package routing

import (
	"slices"
	"time"
)

// SLAMonitor classifies work requests against their service-level
// deadlines. It reports; it never enforces.
type SLAMonitor struct {
	warnFraction float64
	clock        func() time.Time
}

// NewSLAMonitor creates a monitor that flags open requests once their
// remaining time falls below warnFraction of the SLA target. Fractions
// outside (0,1) fall back to 0.2.
func NewSLAMonitor(warnFraction float64) *SLAMonitor {
	if warnFraction <= 0 || warnFraction >= 1 {
		warnFraction = 0.2
	}
	return &SLAMonitor{warnFraction: warnFraction, clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (m *SLAMonitor) WithClock(clock func() time.Time) *SLAMonitor {
	m.clock = clock
	return m
}

// Overdue returns the requests whose SLA deadline has passed, oldest
// first.
func (m *SLAMonitor) Overdue(reqs []*WorkRequest) []*WorkRequest {
	now := m.clock()

	var out []*WorkRequest
	for _, r := range reqs {
		if r.Overdue(now) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b *WorkRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// ApproachingBreach returns the open requests inside the warning window:
// still before their deadline but with less than the warning fraction of
// the SLA target remaining. Most urgent first. Requests without a
// positive SLA target carry no deadline and are excluded.
func (m *SLAMonitor) ApproachingBreach(reqs []*WorkRequest) []*WorkRequest {
	now := m.clock()

	var out []*WorkRequest
	for _, r := range reqs {
		if !r.Open() {
			continue
		}
		if r.SLAHours <= 0 {
			continue
		}
		fraction := r.HoursRemaining(now) / r.SLAHours
		if fraction > 0 && fraction < m.warnFraction {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b *WorkRequest) int {
		switch ra, rb := a.HoursRemaining(now), b.HoursRemaining(now); {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		default:
			return 0
		}
	})
	return out
}
