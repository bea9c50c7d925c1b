package billing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Payment is one reconciled payment against a shoot. The ledger is
// append-only; a shoot's total paid is always a SUM over its rows.
type Payment struct {
	ID         string          `json:"id"`
	ShootID    string          `json:"shootId"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	CheckoutID string          `json:"checkoutId,omitempty"`
	RecordedAt time.Time       `json:"recordedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByShoot(ctx context.Context, shootID string) ([]Payment, error) {
	const q = `
SELECT id, shoot_id, amount::text, method, COALESCE(checkout_id,''), recorded_at
FROM payments
WHERE shoot_id = $1
ORDER BY recorded_at ASC
`
	rows, err := r.db.Query(ctx, q, shootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.ShootID, &amount, &p.Method, &p.CheckoutID, &p.RecordedAt); err != nil {
			return nil, err
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func InsertPayment(ctx context.Context, tx pgx.Tx, shootID string, amount decimal.Decimal, method, checkoutID string) error {
	const q = `
INSERT INTO payments (shoot_id, amount, method, checkout_id)
VALUES ($1, $2, $3, NULLIF($4, ''))
`
	_, err := tx.Exec(ctx, q, shootID, amount.StringFixed(CurrencyScale), method, checkoutID)
	return err
}

// SessionItem captures the per-shoot amount due at the moment a checkout
// session was created, so a bulk payment splits exactly as quoted.
type SessionItem struct {
	ShootID string          `json:"shootId"`
	Amount  decimal.Decimal `json:"amount"`
}

// CreateSession records a checkout session (single or bulk) and its item
// breakdown.
func CreateSession(ctx context.Context, tx pgx.Tx, batchID, checkoutID, checkoutURL string, items []SessionItem) error {
	const qs = `
INSERT INTO checkout_sessions (batch_id, checkout_id, checkout_url)
VALUES ($1, $2, $3)
`
	if _, err := tx.Exec(ctx, qs, batchID, checkoutID, checkoutURL); err != nil {
		return err
	}

	const qi = `
INSERT INTO checkout_session_items (batch_id, shoot_id, amount)
VALUES ($1, $2, $3)
`
	for _, it := range items {
		if _, err := tx.Exec(ctx, qi, batchID, it.ShootID, it.Amount.StringFixed(CurrencyScale)); err != nil {
			return err
		}
	}
	return nil
}

// SessionItemsForUpdate loads the item breakdown for a batch and locks the
// session row. Returns no rows if the session was already completed.
func SessionItemsForUpdate(ctx context.Context, tx pgx.Tx, batchID string) ([]SessionItem, error) {
	const qLock = `
SELECT batch_id
FROM checkout_sessions
WHERE batch_id = $1 AND completed_at IS NULL
FOR UPDATE
`
	var id string
	if err := tx.QueryRow(ctx, qLock, batchID).Scan(&id); err != nil {
		return nil, err
	}

	const q = `
SELECT shoot_id, amount::text
FROM checkout_session_items
WHERE batch_id = $1
ORDER BY shoot_id
`
	rows, err := tx.Query(ctx, q, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionItem
	for rows.Next() {
		var it SessionItem
		var amount string
		if err := rows.Scan(&it.ShootID, &amount); err != nil {
			return nil, err
		}
		it.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func CompleteSession(ctx context.Context, tx pgx.Tx, batchID string) error {
	const q = `
UPDATE checkout_sessions
SET completed_at = NOW()
WHERE batch_id = $1 AND completed_at IS NULL
`
	_, err := tx.Exec(ctx, q, batchID)
	return err
}
