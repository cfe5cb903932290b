// Package directory implements the approver directory the routing engine
// reads through its Directory interface: a PostgreSQL store fronted by a
// Redis read-through cache.
package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/founddesk/be-lf-workrequests/internal/platform/database"
	"github.com/founddesk/be-lf-workrequests/internal/platform/errors"
	"github.com/founddesk/be-lf-workrequests/internal/routing"
)

// NewApprover is the input for registering an approver.
type NewApprover struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	OrgID *string `json:"org_id,omitempty"`
}

// Store is the PostgreSQL approver directory. Listing returns active
// approvers ordered by creation so the engine's tie-breaks stay
// deterministic across calls.
type Store struct {
	db *database.DB
}

// NewStore creates a directory store over the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// ListApprovers returns all active approvers in stable order.
func (s *Store) ListApprovers(ctx context.Context) ([]routing.Approver, error) {
	query := `
		SELECT id, name, role, org_id
		FROM approvers
		WHERE active = TRUE
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approvers")
	}
	defer rows.Close()

	approvers := make([]routing.Approver, 0)
	for rows.Next() {
		var a routing.Approver
		if err := rows.Scan(&a.ID, &a.Name, &a.Role, &a.OrgID); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approver")
		}
		approvers = append(approvers, a)
	}
	return approvers, nil
}

// GetApprover retrieves one approver by ID, active or not.
func (s *Store) GetApprover(ctx context.Context, id string) (*routing.Approver, error) {
	query := `SELECT id, name, role, org_id FROM approvers WHERE id = $1`

	var a routing.Approver
	err := s.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Role, &a.OrgID)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approver", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approver")
	}
	return &a, nil
}

// CreateApprover registers an active approver.
func (s *Store) CreateApprover(ctx context.Context, input NewApprover) (*routing.Approver, error) {
	query := `
		INSERT INTO approvers (id, name, role, org_id, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`

	id := uuid.NewString()
	if err := s.db.QueryRow(ctx, query, id, input.Name, input.Role, input.OrgID).Scan(&id); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create approver")
	}

	return &routing.Approver{
		ID:    id,
		Name:  input.Name,
		Role:  routing.Role(input.Role),
		OrgID: input.OrgID,
	}, nil
}

// SetActive toggles whether an approver appears in directory listings.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE approvers SET active = $2 WHERE id = $1 RETURNING id`

	var returnedID string
	err := s.db.QueryRow(ctx, query, id, active).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("approver", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update approver")
	}
	return nil
}
