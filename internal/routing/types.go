// Package routing implements the work-request routing engine: it selects
// the best available approver for a request, tracks each approver's
// in-flight workload, classifies request urgency and monitors
// service-level deadlines.
//
// The engine is a pure in-memory library. It reads approvers through the
// Directory interface and reports selection outcomes through the Observer
// hook; persistence, caching and transport belong to the hosting layers.
package routing

import (
	"context"
	"time"
)

// Role is an approver capability required by a work-request step.
type Role string

// Roles known to the lost-and-found platform. Unknown role strings are
// legal inputs to candidate selection and simply match nobody.
const (
	RoleBuildingAdmin   Role = "BUILDING_ADMIN"
	RoleOrgAdmin        Role = "ORG_ADMIN"
	RolePoliceLiaison   Role = "POLICE_LIAISON"
	RoleSecurityOfficer Role = "SECURITY_OFFICER"
)

// Priority is the urgency class of a work request.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Status is the lifecycle state of a work request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

// RequestKind discriminates the work-request variants.
type RequestKind string

const (
	KindClaim    RequestKind = "CLAIM"
	KindEvidence RequestKind = "EVIDENCE"
	KindTransfer RequestKind = "TRANSFER"
)

// Approver is a directory user eligible to approve work requests.
// The engine only reads approvers; the directory owns them.
type Approver struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Role  Role    `json:"role"`
	OrgID *string `json:"org_id,omitempty"`
}

// HighValueThreshold is the item value above which a flagged claim is
// classified URGENT rather than HIGH.
const HighValueThreshold = 1000

// Detail carries the variant-specific attributes of a work request.
// Each variant computes its own priority hint so adding a request kind
// does not touch the classifier.
type Detail interface {
	Kind() RequestKind
	PriorityHint() Priority
}

// ClaimDetail is the detail of an item-claim request.
type ClaimDetail struct {
	ItemID    string `json:"item_id"`
	ItemValue int64  `json:"item_value"`
	HighValue bool   `json:"high_value"`
}

func (d ClaimDetail) Kind() RequestKind { return KindClaim }

func (d ClaimDetail) PriorityHint() Priority {
	switch {
	case d.HighValue && d.ItemValue > HighValueThreshold:
		return PriorityUrgent
	case d.HighValue:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// EvidenceDetail is the detail of a police-evidence verification request.
type EvidenceDetail struct {
	CaseRef     string `json:"case_ref"`
	StolenCheck bool   `json:"stolen_check"`
}

func (d EvidenceDetail) Kind() RequestKind { return KindEvidence }

func (d EvidenceDetail) PriorityHint() Priority {
	if d.StolenCheck {
		return PriorityUrgent
	}
	return PriorityHigh
}

// TransferDetail is the detail of an inter-site transfer request.
type TransferDetail struct {
	FromBuilding string `json:"from_building"`
	ToBuilding   string `json:"to_building"`
	SecureArea   bool   `json:"secure_area"`
}

func (d TransferDetail) Kind() RequestKind { return KindTransfer }

func (d TransferDetail) PriorityHint() Priority {
	if d.SecureArea {
		return PriorityHigh
	}
	return PriorityNormal
}

// WorkRequest is the engine's read-only view of a work request. The
// request-lifecycle collaborator owns and mutates the underlying record;
// the engine never persists it.
type WorkRequest struct {
	ID         string
	Kind       RequestKind
	Status     Status
	Priority   Priority
	CreatedAt  time.Time
	OrgID      *string
	NextRole   *Role
	SLAHours   float64
	AssigneeID *string
	Detail     Detail
}

// HoursRemaining returns the hours left until the SLA target, negative
// once the target has passed.
func (r *WorkRequest) HoursRemaining(now time.Time) float64 {
	return r.SLAHours - now.Sub(r.CreatedAt).Hours()
}

// Overdue reports whether the request has breached its SLA target.
// Requests with no SLA target (zero hours) never report overdue.
func (r *WorkRequest) Overdue(now time.Time) bool {
	return r.SLAHours > 0 && r.HoursRemaining(now) <= 0
}

// Open reports whether the request still awaits a decision.
func (r *WorkRequest) Open() bool {
	return r.Status == StatusPending || r.Status == StatusInProgress
}

// Recommendation is the engine's routing decision for a single request.
// Created fresh per call, never stored.
type Recommendation struct {
	Routable bool      `json:"routable"`
	Reason   string    `json:"reason"`
	Approver *Approver `json:"approver,omitempty"`
}

// Directory is the read-only approver lookup owned by the hosting layer.
// Implementations are expected to keep this call cheap; the engine
// invokes it on every routing decision.
type Directory interface {
	ListApprovers(ctx context.Context) ([]Approver, error)
}
