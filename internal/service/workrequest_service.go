package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/founddesk/be-lf-workrequests/internal/config"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
	"github.com/founddesk/be-lf-workrequests/internal/repository"
	"github.com/founddesk/be-lf-workrequests/internal/routing"
)

// WorkRequestStore persists work requests.
type WorkRequestStore interface {
	Create(ctx context.Context, req *repository.WorkRequest) error
	GetByID(ctx context.Context, id string) (*repository.WorkRequest, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*repository.WorkRequest, int64, error)
	ListOpen(ctx context.Context) ([]*repository.WorkRequest, error)
	UpdateRouting(ctx context.Context, id, status string, assigneeID *string, chainIndex int) error
}

// AuditStore appends immutable audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry *repository.AuditEntry) error
	ListByRequestID(ctx context.Context, requestID string) ([]*repository.AuditEntry, error)
}

// EventPublisher emits lifecycle events. Implementations must be
// non-blocking and non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

// WorkRequestService orchestrates the work-request lifecycle around the
// routing engine: creation with policy stamping and priority
// classification, routing, chain advancement, and the admin monitoring
// surface.
type WorkRequestService struct {
	requests  WorkRequestStore
	audits    AuditStore
	router    *routing.Router
	workloads *routing.WorkloadTracker
	monitor   *routing.SLAMonitor
	policy    *config.RoutingPolicy
	publisher EventPublisher
	log       zerolog.Logger
}

// NewWorkRequestService creates the lifecycle service.
func NewWorkRequestService(
	requests WorkRequestStore,
	audits AuditStore,
	router *routing.Router,
	workloads *routing.WorkloadTracker,
	monitor *routing.SLAMonitor,
	policy *config.RoutingPolicy,
	publisher EventPublisher,
	log zerolog.Logger,
) *WorkRequestService {
	return &WorkRequestService{
		requests:  requests,
		audits:    audits,
		router:    router,
		workloads: workloads,
		monitor:   monitor,
		policy:    policy,
		publisher: publisher,
		log:       log,
	}
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

// ClaimInput carries the claim-variant attributes.
type ClaimInput struct {
	ItemID    string `json:"item_id"`
	ItemValue int64  `json:"item_value"`
	HighValue bool   `json:"high_value"`
}

// EvidenceInput carries the evidence-variant attributes.
type EvidenceInput struct {
	CaseRef     string `json:"case_ref"`
	StolenCheck bool   `json:"stolen_check"`
}

// TransferInput carries the transfer-variant attributes.
type TransferInput struct {
	FromBuilding string `json:"from_building"`
	ToBuilding   string `json:"to_building"`
	SecureArea   bool   `json:"secure_area"`
}

// CreateWorkRequestRequest is the input for creating a work request.
// Exactly one variant block must be set, matching Kind.
type CreateWorkRequestRequest struct {
	Kind        string         `json:"kind"`
	RequesterID string         `json:"requester_id"`
	OrgID       *string        `json:"org_id,omitempty"`
	Claim       *ClaimInput    `json:"claim,omitempty"`
	Evidence    *EvidenceInput `json:"evidence,omitempty"`
	Transfer    *TransferInput `json:"transfer,omitempty"`
}

// SweepResult summarizes one SLA sweep.
type SweepResult struct {
	Scanned     int `json:"scanned"`
	Overdue     int `json:"overdue"`
	Approaching int `json:"approaching"`
}

// ── Create ────────────────────────────────────────────────────────────────────

// Create validates the input, stamps the SLA target and approval chain
// from the routing policy, classifies priority through the engine (the
// advisory classification is applied exactly once, here), and persists
// the request as PENDING.
func (s *WorkRequestService) Create(ctx context.Context, req *CreateWorkRequestRequest) (*repository.WorkRequest, error) {
	if req.RequesterID == "" {
		return nil, errors.InvalidInput("requester_id", "requester is required")
	}

	kindPolicy, ok := s.policy.ForKind(req.Kind)
	if !ok {
		return nil, errors.InvalidInput("kind", fmt.Sprintf("unknown request kind '%s'", req.Kind))
	}

	record := &repository.WorkRequest{
		Kind:        req.Kind,
		Status:      string(routing.StatusPending),
		OrgID:       req.OrgID,
		RequesterID: req.RequesterID,
		RoleChain:   kindPolicy.ApproverChain,
		ChainIndex:  0,
		SLAHours:    kindPolicy.SLAHours,
	}

	detail, err := applyVariant(record, req)
	if err != nil {
		return nil, err
	}

	record.Priority = string(routing.Classify(&routing.WorkRequest{
		Kind:   routing.RequestKind(req.Kind),
		Detail: detail,
	}))

	if err := s.requests.Create(ctx, record); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &repository.AuditEntry{
		RequestID: &record.ID,
		Action:    "created",
		ActorID:   req.RequesterID,
		Detail: map[string]interface{}{
			"kind":     record.Kind,
			"priority": record.Priority,
		},
	})
	s.publisher.Publish(ctx, "created", record)

	s.log.Info().
		Str("request_id", record.ID).
		Str("kind", record.Kind).
		Str("priority", record.Priority).
		Float64("sla_hours", record.SLAHours).
		Msg("Work request created")

	return record, nil
}

// applyVariant validates the variant block against the declared kind and
// copies it onto the record, returning the engine detail for
// classification.
func applyVariant(record *repository.WorkRequest, req *CreateWorkRequestRequest) (routing.Detail, error) {
	switch routing.RequestKind(req.Kind) {
	case routing.KindClaim:
		if req.Claim == nil {
			return nil, errors.InvalidInput("claim", "claim detail is required for CLAIM requests")
		}
		if req.Claim.ItemID == "" {
			return nil, errors.InvalidInput("claim.item_id", "item is required")
		}
		if req.Claim.ItemValue < 0 {
			return nil, errors.InvalidInput("claim.item_value", "item value cannot be negative")
		}
		record.ItemID = &req.Claim.ItemID
		record.ItemValue = &req.Claim.ItemValue
		record.HighValue = &req.Claim.HighValue
		return routing.ClaimDetail{
			ItemID:    req.Claim.ItemID,
			ItemValue: req.Claim.ItemValue,
			HighValue: req.Claim.HighValue,
		}, nil

	case routing.KindEvidence:
		if req.Evidence == nil {
			return nil, errors.InvalidInput("evidence", "evidence detail is required for EVIDENCE requests")
		}
		if req.Evidence.CaseRef == "" {
			return nil, errors.InvalidInput("evidence.case_ref", "case reference is required")
		}
		record.CaseRef = &req.Evidence.CaseRef
		record.StolenCheck = &req.Evidence.StolenCheck
		return routing.EvidenceDetail{
			CaseRef:     req.Evidence.CaseRef,
			StolenCheck: req.Evidence.StolenCheck,
		}, nil

	case routing.KindTransfer:
		if req.Transfer == nil {
			return nil, errors.InvalidInput("transfer", "transfer detail is required for TRANSFER requests")
		}
		if req.Transfer.FromBuilding == "" || req.Transfer.ToBuilding == "" {
			return nil, errors.InvalidInput("transfer", "both buildings are required")
		}
		record.FromBuilding = &req.Transfer.FromBuilding
		record.ToBuilding = &req.Transfer.ToBuilding
		record.SecureArea = &req.Transfer.SecureArea
		return routing.TransferDetail{
			FromBuilding: req.Transfer.FromBuilding,
			ToBuilding:   req.Transfer.ToBuilding,
			SecureArea:   req.Transfer.SecureArea,
		}, nil

	default:
		// Unreachable while the policy only knows the three kinds; kept
		// so a policy entry for a new kind fails loudly here instead of
		// writing a half-formed row.
		return nil, errors.InvalidInput("kind", fmt.Sprintf("unsupported request kind '%s'", req.Kind))
	}
}

// ── Route ─────────────────────────────────────────────────────────────────────

// Route asks the engine for a routing recommendation and, when routable,
// assigns the chosen approver and moves the request to IN_PROGRESS. A
// non-routable recommendation is a legitimate outcome returned to the
// caller as data, not an error.
func (s *WorkRequestService) Route(ctx context.Context, id, actorID string) (*routing.Recommendation, error) {
	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOpen(record.Status) {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("cannot route request with status '%s'", record.Status))
	}

	rec, err := s.router.Recommend(ctx, engineView(record))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "approver directory unavailable")
	}
	if !rec.Routable {
		s.log.Info().
			Str("request_id", id).
			Str("reason", rec.Reason).
			Msg("Work request not routable")
		return rec, nil
	}

	if err := s.requests.UpdateRouting(ctx, id, string(routing.StatusInProgress), &rec.Approver.ID, record.ChainIndex); err != nil {
		// The selection already counted against the approver; undo it so
		// the tracker does not drift from the persisted assignment.
		s.workloads.Release(rec.Approver.ID)
		return nil, err
	}

	s.appendAudit(ctx, &repository.AuditEntry{
		RequestID: &id,
		Action:    "routed",
		ActorID:   actorID,
		Detail: map[string]interface{}{
			"approver_id": rec.Approver.ID,
			"role":        string(rec.Approver.Role),
			"reason":      rec.Reason,
		},
	})
	s.publisher.Publish(ctx, "routed", rec)

	s.log.Info().
		Str("request_id", id).
		Str("approver_id", rec.Approver.ID).
		Msg("Work request routed")

	return rec, nil
}

// ── Approve / Reject / Cancel ─────────────────────────────────────────────────

// Approve records the assignee's approval of the current chain step,
// releasing their workload. The request becomes APPROVED when the chain
// is exhausted, otherwise returns to PENDING awaiting the next role.
func (s *WorkRequestService) Approve(ctx context.Context, id, actorID string, note *string) (*repository.WorkRequest, error) {
	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assertAssigned(record, actorID); err != nil {
		return nil, err
	}

	s.workloads.Release(actorID)

	nextIndex := record.ChainIndex + 1
	status := string(routing.StatusPending)
	action := "step_approved"
	event := "step_approved"
	if nextIndex >= len(record.RoleChain) {
		status = string(routing.StatusApproved)
		action = "approved"
		event = "approved"
	}

	if err := s.requests.UpdateRouting(ctx, id, status, nil, nextIndex); err != nil {
		return nil, err
	}

	detail := map[string]interface{}{"step": record.ChainIndex}
	if note != nil {
		detail["note"] = *note
	}
	s.appendAudit(ctx, &repository.AuditEntry{
		RequestID: &id,
		Action:    action,
		ActorID:   actorID,
		Detail:    detail,
	})

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, event, updated)

	s.log.Info().
		Str("request_id", id).
		Str("actor_id", actorID).
		Str("status", updated.Status).
		Msg("Approval step recorded")

	return updated, nil
}

// Reject records the assignee's rejection, terminating the request. A
// reason is required.
func (s *WorkRequestService) Reject(ctx context.Context, id, actorID, reason string) (*repository.WorkRequest, error) {
	if reason == "" {
		return nil, errors.InvalidInput("reason", "rejection reason is required")
	}

	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assertAssigned(record, actorID); err != nil {
		return nil, err
	}

	s.workloads.Release(actorID)

	if err := s.requests.UpdateRouting(ctx, id, string(routing.StatusRejected), nil, record.ChainIndex); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &repository.AuditEntry{
		RequestID: &id,
		Action:    "rejected",
		ActorID:   actorID,
		Detail:    map[string]interface{}{"reason": reason, "step": record.ChainIndex},
	})

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "rejected", updated)

	s.log.Info().
		Str("request_id", id).
		Str("actor_id", actorID).
		Msg("Work request rejected")

	return updated, nil
}

// Cancel lets the requester withdraw an open request, releasing any
// assigned workload.
func (s *WorkRequestService) Cancel(ctx context.Context, id, actorID string) (*repository.WorkRequest, error) {
	record, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.RequesterID != actorID {
		return nil, errors.New(errors.ErrCodeUnauthorized, "only the requester can cancel a work request")
	}
	if !isOpen(record.Status) {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("cannot cancel request with status '%s'", record.Status))
	}

	if record.AssigneeID != nil {
		s.workloads.Release(*record.AssigneeID)
	}

	if err := s.requests.UpdateRouting(ctx, id, string(routing.StatusCancelled), nil, record.ChainIndex); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &repository.AuditEntry{
		RequestID: &id,
		Action:    "cancelled",
		ActorID:   actorID,
	})

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "cancelled", updated)

	s.log.Info().Str("request_id", id).Msg("Work request cancelled")

	return updated, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Get retrieves a work request by ID.
func (s *WorkRequestService) Get(ctx context.Context, id string) (*repository.WorkRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// List retrieves work requests with filtering and pagination.
func (s *WorkRequestService) List(ctx context.Context, filter repository.ListFilter) ([]*repository.WorkRequest, int64, error) {
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.requests.List(ctx, filter)
}

// AuditTrail returns the full audit trail for a request, oldest first.
func (s *WorkRequestService) AuditTrail(ctx context.Context, id string) ([]*repository.AuditEntry, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audits.ListByRequestID(ctx, id)
}

// ── Admin monitoring surface ──────────────────────────────────────────────────

// WorkloadSnapshot returns the current per-approver workload counts.
func (s *WorkRequestService) WorkloadSnapshot() map[string]int {
	return s.workloads.Snapshot()
}

// ResetWorkloads clears all workload counts. The counter table is
// process-lifetime memory; this is the only administrative escape hatch
// when it drifts from ground truth.
func (s *WorkRequestService) ResetWorkloads(ctx context.Context, actorID string) {
	s.workloads.Reset()

	s.appendAudit(ctx, &repository.AuditEntry{
		Action:  "workloads_reset",
		ActorID: actorID,
	})
	s.publisher.Publish(ctx, "workloads_reset", map[string]string{"actor_id": actorID})

	s.log.Info().Str("actor_id", actorID).Msg("Workload tracking reset")
}

// OverdueRequests returns the open requests past their SLA deadline,
// oldest first.
func (s *WorkRequestService) OverdueRequests(ctx context.Context) ([]*repository.WorkRequest, error) {
	records, views, err := s.openViews(ctx)
	if err != nil {
		return nil, err
	}
	return mapBack(records, s.monitor.Overdue(views)), nil
}

// ApproachingBreach returns the open requests inside the SLA warning
// window, most urgent first.
func (s *WorkRequestService) ApproachingBreach(ctx context.Context) ([]*repository.WorkRequest, error) {
	records, views, err := s.openViews(ctx)
	if err != nil {
		return nil, err
	}
	return mapBack(records, s.monitor.ApproachingBreach(views)), nil
}

// SweepSLAs runs the SLA monitor over all open requests and publishes an
// event per finding. Called on the configured interval by the server's
// sweep loop.
func (s *WorkRequestService) SweepSLAs(ctx context.Context) (*SweepResult, error) {
	records, views, err := s.openViews(ctx)
	if err != nil {
		return nil, err
	}

	overdue := s.monitor.Overdue(views)
	approaching := s.monitor.ApproachingBreach(views)

	for _, r := range mapBack(records, overdue) {
		s.publisher.Publish(ctx, "sla_overdue", r)
	}
	for _, r := range mapBack(records, approaching) {
		s.publisher.Publish(ctx, "sla_warning", r)
	}

	result := &SweepResult{
		Scanned:     len(records),
		Overdue:     len(overdue),
		Approaching: len(approaching),
	}

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("overdue", result.Overdue).
		Int("approaching", result.Approaching).
		Msg("SLA sweep completed")

	return result, nil
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// assertAssigned checks the request is awaiting a decision from actorID.
func (s *WorkRequestService) assertAssigned(record *repository.WorkRequest, actorID string) error {
	if record.Status != string(routing.StatusInProgress) {
		return errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("request is not awaiting a decision (status: %s)", record.Status))
	}
	if record.AssigneeID == nil || *record.AssigneeID != actorID {
		return errors.New(errors.ErrCodeUnauthorized, "user is not the assigned approver for this request")
	}
	return nil
}

// appendAudit writes an audit entry, logging a warning on failure.
// Audit failures never interrupt the parent operation.
func (s *WorkRequestService) appendAudit(ctx context.Context, entry *repository.AuditEntry) {
	if err := s.audits.Append(ctx, entry); err != nil {
		requestID := ""
		if entry.RequestID != nil {
			requestID = *entry.RequestID
		}
		s.log.Warn().Err(err).
			Str("request_id", requestID).
			Str("action", entry.Action).
			Msg("Failed to write audit entry")
	}
}

// openViews loads the open requests and their engine projections.
func (s *WorkRequestService) openViews(ctx context.Context) ([]*repository.WorkRequest, []*routing.WorkRequest, error) {
	records, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, nil, err
	}
	views := make([]*routing.WorkRequest, 0, len(records))
	for _, r := range records {
		views = append(views, engineView(r))
	}
	return records, views, nil
}

// mapBack returns the persisted records matching the engine views, in the
// views' order.
func mapBack(records []*repository.WorkRequest, views []*routing.WorkRequest) []*repository.WorkRequest {
	byID := make(map[string]*repository.WorkRequest, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]*repository.WorkRequest, 0, len(views))
	for _, v := range views {
		if r, ok := byID[v.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func isOpen(status string) bool {
	return status == string(routing.StatusPending) || status == string(routing.StatusInProgress)
}

// engineView projects a persisted work request into the engine's
// read-only view.
func engineView(r *repository.WorkRequest) *routing.WorkRequest {
	view := &routing.WorkRequest{
		ID:         r.ID,
		Kind:       routing.RequestKind(r.Kind),
		Status:     routing.Status(r.Status),
		Priority:   routing.Priority(r.Priority),
		CreatedAt:  r.CreatedAt,
		OrgID:      r.OrgID,
		SLAHours:   r.SLAHours,
		AssigneeID: r.AssigneeID,
		Detail:     variantDetail(r),
	}
	if next := r.NextRole(); next != nil {
		role := routing.Role(*next)
		view.NextRole = &role
	}
	return view
}

// variantDetail rebuilds the engine detail from the variant columns.
func variantDetail(r *repository.WorkRequest) routing.Detail {
	switch routing.RequestKind(r.Kind) {
	case routing.KindClaim:
		d := routing.ClaimDetail{}
		if r.ItemID != nil {
			d.ItemID = *r.ItemID
		}
		if r.ItemValue != nil {
			d.ItemValue = *r.ItemValue
		}
		if r.HighValue != nil {
			d.HighValue = *r.HighValue
		}
		return d
	case routing.KindEvidence:
		d := routing.EvidenceDetail{}
		if r.CaseRef != nil {
			d.CaseRef = *r.CaseRef
		}
		if r.StolenCheck != nil {
			d.StolenCheck = *r.StolenCheck
		}
		return d
	case routing.KindTransfer:
		d := routing.TransferDetail{}
		if r.FromBuilding != nil {
			d.FromBuilding = *r.FromBuilding
		}
		if r.ToBuilding != nil {
			d.ToBuilding = *r.ToBuilding
		}
		if r.SecureArea != nil {
			d.SecureArea = *r.SecureArea
		}
		return d
	default:
		return nil
	}
}
