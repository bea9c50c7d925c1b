package hold

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Request is a client-initiated hold awaiting a staff decision. At most one
// open request exists per shoot; deciding it closes it.
type Request struct {
	ShootID     string  `json:"shootId"`
	RequestedBy string  `json:"requestedBy"`
	Reason      string  `json:"reason,omitempty"`
	RequestedAt string  `json:"requestedAt"`
	DecidedAt   *string `json:"decidedAt,omitempty"`
	DecidedBy   *string `json:"decidedBy,omitempty"`
	Approved    *bool   `json:"approved,omitempty"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Open returns the undecided request for a shoot, if any.
func (r *Repository) Open(ctx context.Context, shootID string) (*Request, error) {
	const q = `
SELECT shoot_id, requested_by, COALESCE(reason,''), requested_at::text, decided_at::text, decided_by, approved
FROM hold_requests
WHERE shoot_id = $1 AND decided_at IS NULL
`
	var req Request
	if err := r.db.QueryRow(ctx, q, shootID).Scan(
		&req.ShootID, &req.RequestedBy, &req.Reason, &req.RequestedAt, &req.DecidedAt, &req.DecidedBy, &req.Approved,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func HasOpen(ctx context.Context, tx pgx.Tx, shootID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM hold_requests WHERE shoot_id = $1 AND decided_at IS NULL)`
	var open bool
	err := tx.QueryRow(ctx, q, shootID).Scan(&open)
	return open, err
}

func InsertRequested(ctx context.Context, tx pgx.Tx, shootID, requestedBy, reason string) error {
	const q = `
INSERT INTO hold_requests (shoot_id, requested_by, reason)
VALUES ($1, $2, $3)
`
	_, err := tx.Exec(ctx, q, shootID, requestedBy, reason)
	return err
}

// Decide closes the open request. approved=true means the staff member went
// on to apply the hold in the same transaction.
func Decide(ctx context.Context, tx pgx.Tx, shootID, decidedBy string, approved bool) error {
	const q = `
UPDATE hold_requests
SET decided_at = NOW(),
    decided_by = $2,
    approved = $3
WHERE shoot_id = $1 AND decided_at IS NULL
`
	_, err := tx.Exec(ctx, q, shootID, decidedBy, approved)
	return err
}
