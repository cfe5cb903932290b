package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/founddesk/be-lf-workrequests/internal/platform/database"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
)

// WorkRequestRepository handles work-request data operations.
type WorkRequestRepository struct {
	db *database.DB
}

// NewWorkRequestRepository creates a new work-request repository.
func NewWorkRequestRepository(db *database.DB) *WorkRequestRepository {
	return &WorkRequestRepository{db: db}
}

const workRequestColumns = `
	id, kind, status, priority, org_id, requester_id, assignee_id,
	role_chain, chain_index, sla_hours,
	item_id, item_value, high_value,
	case_ref, stolen_check,
	from_building, to_building, secure_area,
	created_at, updated_at
`

// Create inserts a new work request, assigning its ID and timestamps.
func (r *WorkRequestRepository) Create(ctx context.Context, req *WorkRequest) error {
	chainJSON, err := json.Marshal(req.RoleChain)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal role chain")
	}

	req.ID = uuid.NewString()

	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO work_requests (id, kind, status, priority, org_id, requester_id,
			                           role_chain, chain_index, sla_hours,
			                           item_id, item_value, high_value,
			                           case_ref, stolen_check,
			                           from_building, to_building, secure_area)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(ctx, query,
			req.ID,
			req.Kind,
			req.Status,
			req.Priority,
			req.OrgID,
			req.RequesterID,
			chainJSON,
			req.ChainIndex,
			req.SLAHours,
			req.ItemID,
			req.ItemValue,
			req.HighValue,
			req.CaseRef,
			req.StolenCheck,
			req.FromBuilding,
			req.ToBuilding,
			req.SecureArea,
		).Scan(&req.CreatedAt, &req.UpdatedAt)

		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create work request")
		}
		return nil
	})
}

// GetByID retrieves a work request by ID.
func (r *WorkRequestRepository) GetByID(ctx context.Context, id string) (*WorkRequest, error) {
	query := `SELECT ` + workRequestColumns + ` FROM work_requests WHERE id = $1`

	req, err := r.scanRequest(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("work request", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get work request")
	}
	return req, nil
}

// List retrieves work requests with filtering and pagination, newest first.
func (r *WorkRequestRepository) List(ctx context.Context, filter ListFilter) ([]*WorkRequest, int64, error) {
	query := `SELECT ` + workRequestColumns + ` FROM work_requests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM work_requests WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	if filter.Status != nil {
		clause := fmt.Sprintf(" AND status = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.Kind != nil {
		clause := fmt.Sprintf(" AND kind = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *filter.Kind)
		argCount++
	}

	if filter.OrgID != nil {
		clause := fmt.Sprintf(" AND org_id = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *filter.OrgID)
		argCount++
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)

	queryArgs := append(args, filter.Limit, filter.Offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count work requests")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list work requests")
	}
	defer rows.Close()

	requests, err := r.scanRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListOpen retrieves all requests still awaiting a decision, oldest first
// so SLA sweeps see long-waiting requests even under result truncation.
func (r *WorkRequestRepository) ListOpen(ctx context.Context) ([]*WorkRequest, error) {
	query := `
		SELECT ` + workRequestColumns + `
		FROM work_requests
		WHERE status IN ('PENDING', 'IN_PROGRESS')
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list open work requests")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// UpdateRouting persists a lifecycle transition: status, assignee and
// position in the approval chain in one statement.
func (r *WorkRequestRepository) UpdateRouting(ctx context.Context, id, status string, assigneeID *string, chainIndex int) error {
	query := `
		UPDATE work_requests
		SET status = $2,
		    assignee_id = $3,
		    chain_index = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRow(ctx, query, id, status, assigneeID, chainIndex).Scan(&returnedID)

	if err == pgx.ErrNoRows {
		return errors.NotFound("work request", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update work request")
	}
	return nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *WorkRequestRepository) scanRows(rows pgx.Rows) ([]*WorkRequest, error) {
	requests := make([]*WorkRequest, 0)
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan work request")
		}
		requests = append(requests, req)
	}
	return requests, nil
}

type requestScanner interface {
	Scan(dest ...any) error
}

func (r *WorkRequestRepository) scanRequest(sc requestScanner) (*WorkRequest, error) {
	req := &WorkRequest{}
	var chainJSON []byte

	err := sc.Scan(
		&req.ID,
		&req.Kind,
		&req.Status,
		&req.Priority,
		&req.OrgID,
		&req.RequesterID,
		&req.AssigneeID,
		&chainJSON,
		&req.ChainIndex,
		&req.SLAHours,
		&req.ItemID,
		&req.ItemValue,
		&req.HighValue,
		&req.CaseRef,
		&req.StolenCheck,
		&req.FromBuilding,
		&req.ToBuilding,
		&req.SecureArea,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if chainJSON != nil {
		if err := json.Unmarshal(chainJSON, &req.RoleChain); err != nil {
			return nil, fmt.Errorf("unmarshal role chain: %w", err)
		}
	}

	return req, nil
}
