package routing

import (
	"context"
	"fmt"
)

// Router composes candidate selection and approver selection into a
// routing recommendation for a single request.
type Router struct {
	candidates *CandidateSelector
	selector   *ApproverSelector
	observer   Observer
}

// NewRouter creates a router. A nil observer is replaced by NopObserver.
func NewRouter(candidates *CandidateSelector, selector *ApproverSelector, observer Observer) *Router {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Router{candidates: candidates, selector: selector, observer: observer}
}

// Recommend decides whether and to whom the request can be routed. A
// request with no next required role is fully approved; a role nobody
// holds yields a non-routable recommendation, not an error. A successful
// selection increments the chosen approver's workload and notifies the
// observer before returning.
func (r *Router) Recommend(ctx context.Context, req *WorkRequest) (*Recommendation, error) {
	if req.NextRole == nil {
		return &Recommendation{Routable: false, Reason: "fully approved"}, nil
	}
	role := *req.NextRole

	candidates, err := r.candidates.Candidates(ctx, role, req.OrgID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Recommendation{
			Routable: false,
			Reason:   fmt.Sprintf("no approvers for role %s", role),
		}, nil
	}

	chosen, workload := r.selector.Select(candidates, req.Priority)

	r.observer.ObserveSelection(SelectionEvent{
		RequestID:    req.ID,
		ApproverID:   chosen.ID,
		ApproverName: chosen.Name,
		Role:         role,
		Priority:     req.Priority,
		Workload:     workload,
	})

	return &Recommendation{
		Routable: true,
		Reason:   fmt.Sprintf("assigned to %s for role %s (workload now %d)", chosen.Name, role, workload),
		Approver: chosen,
	}, nil
}
