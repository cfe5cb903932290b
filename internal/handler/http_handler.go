package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/founddesk/be-lf-workrequests/internal/directory"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
	"github.com/founddesk/be-lf-workrequests/internal/repository"
	"github.com/founddesk/be-lf-workrequests/internal/service"
)

// actorHeader carries the acting user's ID. Authentication is owned by
// the platform gateway; this service trusts the forwarded identity.
const actorHeader = "X-User-ID"

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	service   *service.WorkRequestService
	directory *directory.CachedDirectory
	log       zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(svc *service.WorkRequestService, dir *directory.CachedDirectory, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{service: svc, directory: dir, log: log}
}

// Routes mounts every endpoint on r.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/work-requests", func(r chi.Router) {
			r.Post("/", h.CreateWorkRequest)
			r.Get("/", h.ListWorkRequests)
			r.Get("/{id}", h.GetWorkRequest)
			r.Get("/{id}/audit", h.GetAuditTrail)
			r.Post("/{id}/route", h.RouteWorkRequest)
			r.Post("/{id}/approve", h.ApproveWorkRequest)
			r.Post("/{id}/reject", h.RejectWorkRequest)
			r.Post("/{id}/cancel", h.CancelWorkRequest)
		})

		r.Route("/routing/workloads", func(r chi.Router) {
			r.Get("/", h.WorkloadSnapshot)
			r.Post("/reset", h.ResetWorkloads)
		})

		r.Route("/sla", func(r chi.Router) {
			r.Get("/overdue", h.OverdueRequests)
			r.Get("/approaching-breach", h.ApproachingBreach)
		})

		r.Route("/approvers", func(r chi.Router) {
			r.Get("/", h.ListApprovers)
			r.Post("/", h.CreateApprover)
			r.Post("/{id}/active", h.SetApproverActive)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// ── Work requests ─────────────────────────────────────────────────────────────

// CreateWorkRequest handles POST /api/v1/work-requests.
func (h *HTTPHandler) CreateWorkRequest(w http.ResponseWriter, r *http.Request) {
	var req service.CreateWorkRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = r.Header.Get(actorHeader)
	}

	record, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// GetWorkRequest handles GET /api/v1/work-requests/{id}.
func (h *HTTPHandler) GetWorkRequest(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListWorkRequests handles GET /api/v1/work-requests.
func (h *HTTPHandler) ListWorkRequests(w http.ResponseWriter, r *http.Request) {
	filter := repository.ListFilter{
		Status: optionalQuery(r, "status"),
		Kind:   optionalQuery(r, "kind"),
		OrgID:  optionalQuery(r, "org_id"),
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	records, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"work_requests": records,
		"total":         total,
	})
}

// GetAuditTrail handles GET /api/v1/work-requests/{id}/audit.
func (h *HTTPHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audit": entries})
}

// RouteWorkRequest handles POST /api/v1/work-requests/{id}/route. A
// non-routable recommendation is returned with 200; the caller decides
// whether to queue or escalate.
func (h *HTTPHandler) RouteWorkRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Route(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ApproveWorkRequest handles POST /api/v1/work-requests/{id}/approve.
func (h *HTTPHandler) ApproveWorkRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Note *string `json:"note,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	record, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), actorID, body.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// RejectWorkRequest handles POST /api/v1/work-requests/{id}/reject.
func (h *HTTPHandler) RejectWorkRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	record, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), actorID, body.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// CancelWorkRequest handles POST /api/v1/work-requests/{id}/cancel.
func (h *HTTPHandler) CancelWorkRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	record, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ── Admin monitoring ──────────────────────────────────────────────────────────

// WorkloadSnapshot handles GET /api/v1/routing/workloads.
func (h *HTTPHandler) WorkloadSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"workloads": h.service.WorkloadSnapshot()})
}

// ResetWorkloads handles POST /api/v1/routing/workloads/reset.
func (h *HTTPHandler) ResetWorkloads(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	h.service.ResetWorkloads(r.Context(), actorID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// OverdueRequests handles GET /api/v1/sla/overdue.
func (h *HTTPHandler) OverdueRequests(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.OverdueRequests(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"work_requests": records})
}

// ApproachingBreach handles GET /api/v1/sla/approaching-breach.
func (h *HTTPHandler) ApproachingBreach(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ApproachingBreach(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"work_requests": records})
}

// ── Approver directory ────────────────────────────────────────────────────────

// ListApprovers handles GET /api/v1/approvers.
func (h *HTTPHandler) ListApprovers(w http.ResponseWriter, r *http.Request) {
	approvers, err := h.directory.ListApprovers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"approvers": approvers})
}

// CreateApprover handles POST /api/v1/approvers.
func (h *HTTPHandler) CreateApprover(w http.ResponseWriter, r *http.Request) {
	var input directory.NewApprover
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if input.Name == "" || input.Role == "" {
		h.writeError(w, r, errors.InvalidInput("approver", "name and role are required"))
		return
	}

	approver, err := h.directory.CreateApprover(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, approver)
}

// SetApproverActive handles POST /api/v1/approvers/{id}/active.
func (h *HTTPHandler) SetApproverActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	if err := h.directory.SetActive(r.Context(), chi.URLParam(r, "id"), body.Active); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// requireActor extracts the acting user from the request, writing a
// validation error when the header is missing.
func (h *HTTPHandler) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := r.Header.Get(actorHeader)
	if actorID == "" {
		h.writeError(w, r, errors.InvalidInput(actorHeader, "acting user header is required"))
		return "", false
	}
	return actorID, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{
		"code":  errors.CodeOf(err),
		"error": err.Error(),
	})
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
