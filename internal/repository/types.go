package repository

import "time"

// ── Persistence model ─────────────────────────────────────────────────────────

// WorkRequest is the persisted form of a work request. The routing engine
// never sees this type; the service layer projects it into the engine's
// read-only view per call.
type WorkRequest struct {
	ID          string
	Kind        string // CLAIM | EVIDENCE | TRANSFER
	Status      string // PENDING | IN_PROGRESS | APPROVED | REJECTED | CANCELLED
	Priority    string // NORMAL | HIGH | URGENT
	OrgID       *string
	RequesterID string
	AssigneeID  *string

	// RoleChain is the ordered approver roles the request must pass
	// through; RoleChain[ChainIndex] is the next required role and
	// ChainIndex == len(RoleChain) means fully approved.
	RoleChain  []string
	ChainIndex int
	SLAHours   float64

	// Variant detail columns, populated per Kind.
	ItemID       *string
	ItemValue    *int64
	HighValue    *bool
	CaseRef      *string
	StolenCheck  *bool
	FromBuilding *string
	ToBuilding   *string
	SecureArea   *bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NextRole returns the next required approver role, or nil when the chain
// is exhausted.
func (r *WorkRequest) NextRole() *string {
	if r.ChainIndex < 0 || r.ChainIndex >= len(r.RoleChain) {
		return nil
	}
	role := r.RoleChain[r.ChainIndex]
	return &role
}

// ListFilter narrows a work-request listing.
type ListFilter struct {
	Status *string
	Kind   *string
	OrgID  *string
	Limit  int
	Offset int
}

// AuditEntry is one immutable record in the work-request audit log.
// RequestID is nil for engine-level actions (workload reset).
type AuditEntry struct {
	ID        string
	RequestID *string
	Action    string // created | routed | step_approved | approved | rejected | cancelled | workloads_reset
	ActorID   string
	Detail    map[string]interface{} // arbitrary JSON context
	CreatedAt time.Time
}
