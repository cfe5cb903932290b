package routing

import (
	"testing"
	"time"
)

// slaRequest builds an open request whose SLA math is driven by how many
// hours ago it was created.
func slaRequest(id string, status Status, slaHours, hoursAgo float64, now time.Time) *WorkRequest {
	return &WorkRequest{
		ID:        id,
		Kind:      KindClaim,
		Status:    status,
		Priority:  PriorityNormal,
		SLAHours:  slaHours,
		CreatedAt: now.Add(-time.Duration(hoursAgo * float64(time.Hour))),
	}
}

func TestOverdueFiltersAndSortsOldestFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	monitor := NewSLAMonitor(0.2).WithClock(func() time.Time { return now })

	reqs := []*WorkRequest{
		slaRequest("fresh", StatusPending, 24, 1, now),      // 23h remaining
		slaRequest("older", StatusPending, 24, 30, now),     // breached 6h ago
		slaRequest("oldest", StatusInProgress, 24, 50, now), // breached 26h ago
		slaRequest("no-sla", StatusPending, 0, 100, now),    // no target, never overdue
	}

	got := monitor.Overdue(reqs)
	if len(got) != 2 {
		t.Fatalf("expected 2 overdue, got %d", len(got))
	}
	if got[0].ID != "oldest" || got[1].ID != "older" {
		t.Fatalf("expected oldest first, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestApproachingBreachWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	monitor := NewSLAMonitor(0.2).WithClock(func() time.Time { return now })

	reqs := []*WorkRequest{
		slaRequest("at-10pct", StatusPending, 20, 18, now),     // 2h of 20h left
		slaRequest("at-50pct", StatusPending, 20, 10, now),     // 10h of 20h left
		slaRequest("breached", StatusPending, 20, 21, now),     // already over
		slaRequest("zero-target", StatusPending, 0, 18, now),   // guarded edge case
		slaRequest("approved", StatusApproved, 20, 18, now),    // closed, not reported
		slaRequest("in-progress", StatusInProgress, 20, 19, now), // 1h of 20h left
	}

	got := monitor.ApproachingBreach(reqs)
	if len(got) != 2 {
		t.Fatalf("expected 2 approaching breach, got %d", len(got))
	}
	// Most urgent first: 1h remaining before 2h remaining.
	if got[0].ID != "in-progress" || got[1].ID != "at-10pct" {
		t.Fatalf("expected most urgent first, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestApproachingBreachEmptyInput(t *testing.T) {
	monitor := NewSLAMonitor(0.2)

	if got := monitor.ApproachingBreach(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if got := monitor.Overdue(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestMonitorRejectsBadWarningFraction(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Nonsense fractions fall back to the 0.2 default.
	for _, fraction := range []float64{0, -1, 1, 5} {
		monitor := NewSLAMonitor(fraction).WithClock(func() time.Time { return now })
		reqs := []*WorkRequest{slaRequest("at-10pct", StatusPending, 20, 18, now)}
		if got := monitor.ApproachingBreach(reqs); len(got) != 1 {
			t.Fatalf("fraction %v: expected default window to apply, got %v", fraction, got)
		}
	}
}

func TestHoursRemainingMayGoNegative(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	req := slaRequest("late", StatusPending, 24, 30, now)

	if got := req.HoursRemaining(now); got != -6 {
		t.Fatalf("expected -6 hours remaining, got %v", got)
	}
	if !req.Overdue(now) {
		t.Fatal("expected request to be overdue")
	}
}
