package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/founddesk/be-lf-workrequests/internal/platform/database"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
)

// AuditRepository appends and reads immutable work-request audit entries.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit entry. The log is append-only; this is the only
// mutation operation exposed.
func (r *AuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	var detailJSON []byte
	if entry.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit detail")
		}
	}

	entry.ID = uuid.NewString()

	query := `
		INSERT INTO work_request_audit (id, request_id, action, actor_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.Action,
		entry.ActorID,
		detailJSON,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append audit entry")
	}
	return nil
}

// ListByRequestID returns the full audit trail for a request, oldest first.
func (r *AuditRepository) ListByRequestID(ctx context.Context, requestID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, request_id, action, actor_id, detail, created_at
		FROM work_request_audit
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get audit trail")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *AuditRepository) scanRows(rows pgx.Rows) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type auditScanner interface {
	Scan(dest ...any) error
}

func (r *AuditRepository) scanEntry(sc auditScanner) (*AuditEntry, error) {
	entry := &AuditEntry{}
	var detailJSON []byte

	err := sc.Scan(
		&entry.ID,
		&entry.RequestID,
		&entry.Action,
		&entry.ActorID,
		&detailJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
	}

	if detailJSON != nil {
		if err := json.Unmarshal(detailJSON, &entry.Detail); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit detail")
		}
	}

	return entry, nil
}
