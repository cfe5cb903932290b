package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/founddesk/be-lf-workrequests/internal/config"
	"github.com/founddesk/be-lf-workrequests/internal/directory"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
	"github.com/founddesk/be-lf-workrequests/internal/repository"
	"github.com/founddesk/be-lf-workrequests/internal/routing"
	"github.com/founddesk/be-lf-workrequests/internal/service"
)

// ── In-memory collaborators ───────────────────────────────────────────────────

type memStore struct {
	requests map[string]*repository.WorkRequest
	nextID   int
}

func (s *memStore) Create(_ context.Context, req *repository.WorkRequest) error {
	s.nextID++
	req.ID = fmt.Sprintf("wr-%d", s.nextID)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*repository.WorkRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, errors.NotFound("work request", id)
	}
	clone := *req
	return &clone, nil
}

func (s *memStore) List(_ context.Context, _ repository.ListFilter) ([]*repository.WorkRequest, int64, error) {
	var out []*repository.WorkRequest
	for _, r := range s.requests {
		clone := *r
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) ListOpen(_ context.Context) ([]*repository.WorkRequest, error) {
	var out []*repository.WorkRequest
	for _, r := range s.requests {
		if r.Status == "PENDING" || r.Status == "IN_PROGRESS" {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRouting(_ context.Context, id, status string, assigneeID *string, chainIndex int) error {
	req, ok := s.requests[id]
	if !ok {
		return errors.NotFound("work request", id)
	}
	req.Status = status
	req.AssigneeID = assigneeID
	req.ChainIndex = chainIndex
	return nil
}

type memAudit struct{ entries []*repository.AuditEntry }

func (a *memAudit) Append(_ context.Context, entry *repository.AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) ListByRequestID(_ context.Context, requestID string) ([]*repository.AuditEntry, error) {
	var out []*repository.AuditEntry
	for _, e := range a.entries {
		if e.RequestID != nil && *e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memPublisher struct{}

func (memPublisher) Publish(context.Context, string, interface{}) {}

type memApprovers struct{ approvers []routing.Approver }

func (d *memApprovers) ListApprovers(context.Context) ([]routing.Approver, error) {
	return d.approvers, nil
}

func (d *memApprovers) GetApprover(_ context.Context, id string) (*routing.Approver, error) {
	for _, a := range d.approvers {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, errors.NotFound("approver", id)
}

func (d *memApprovers) CreateApprover(_ context.Context, input directory.NewApprover) (*routing.Approver, error) {
	a := routing.Approver{
		ID:    fmt.Sprintf("u-%d", len(d.approvers)+1),
		Name:  input.Name,
		Role:  routing.Role(input.Role),
		OrgID: input.OrgID,
	}
	d.approvers = append(d.approvers, a)
	return &a, nil
}

func (d *memApprovers) SetActive(context.Context, string, bool) error { return nil }

// ── Fixture ───────────────────────────────────────────────────────────────────

func newTestServer(t *testing.T, approvers []routing.Approver) *httptest.Server {
	t.Helper()

	dir := directory.NewCachedDirectory(&memApprovers{approvers: approvers}, nil, time.Minute, zerolog.Nop())
	workloads := routing.NewWorkloadTracker()
	router := routing.NewRouter(
		routing.NewCandidateSelector(dir),
		routing.NewApproverSelector(workloads),
		nil,
	)

	svc := service.NewWorkRequestService(
		&memStore{requests: make(map[string]*repository.WorkRequest)},
		&memAudit{},
		router,
		workloads,
		routing.NewSLAMonitor(0.2),
		config.DefaultPolicy(),
		memPublisher{},
		zerolog.Nop(),
	)

	r := chi.NewRouter()
	NewHTTPHandler(svc, dir, zerolog.Nop()).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, actor, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-ID", actor)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateAndRouteWorkRequest(t *testing.T) {
	srv := newTestServer(t, []routing.Approver{
		{ID: "u-1", Name: "Ada", Role: routing.RoleBuildingAdmin},
	})

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/work-requests", "student-1",
		`{"kind":"CLAIM","claim":{"item_id":"item-1","item_value":1500,"high_value":true}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "URGENT", created["Priority"])

	id := created["ID"].(string)
	resp, rec := doJSON(t, http.MethodPost, srv.URL+"/api/v1/work-requests/"+id+"/route", "admin-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, rec["routable"])

	resp, snapshot := doJSON(t, http.MethodGet, srv.URL+"/api/v1/routing/workloads", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	workloads := snapshot["workloads"].(map[string]interface{})
	assert.Equal(t, float64(1), workloads["u-1"])
}

func TestRouteWithoutActorHeaderFails(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/work-requests/wr-1/route", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeValidation, body["code"])
}

func TestGetMissingRequestMapsToNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/work-requests/missing", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeNotFound, body["code"])
}

func TestCreateUnknownKindMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/work-requests", "student-1",
		`{"kind":"AUCTION"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeValidation, body["code"])
}

func TestApproverDirectoryEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/approvers", "admin-1",
		`{"name":"Ada","role":"BUILDING_ADMIN"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Ada", created["name"])

	resp, list := doJSON(t, http.MethodGet, srv.URL+"/api/v1/approvers", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list["approvers"], 1)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
