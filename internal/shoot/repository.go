package shoot

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shootops/internal/billing"
	"shootops/internal/hold"
	"shootops/internal/media"
	"shootops/internal/role"
)

type Shoot struct {
	ID        string `json:"id"`
	DisplayID string `json:"displayId"`
	Address   string `json:"address"`

	ClientID       string `json:"clientId,omitempty"`
	PhotographerID string `json:"photographerId,omitempty"`
	EditorID       string `json:"editorId,omitempty"`

	RawStatus         string `json:"status"`
	RawWorkflowStatus string `json:"workflowStatus,omitempty"`

	ScheduledDate string `json:"scheduledDate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`

	BaseQuote  decimal.Decimal `json:"baseQuote"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	TotalQuote decimal.Decimal `json:"totalQuote"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListItem struct {
	Shoot
	TotalPaid decimal.Decimal `json:"totalPaid"`
	Stage     Stage           `json:"stage"`
	AmountDue decimal.Decimal `json:"amountDue"`

	HoldRequested  bool `json:"holdRequested"`
	HasRawMedia    bool `json:"hasRawMedia"`
	HasEditedMedia bool `json:"hasEditedMedia"`
}

// Snapshot rebuilds the eligibility snapshot from a list row. Used by the
// bulk-action filter so it consults the exact same evaluator as the
// per-shoot endpoints.
func (it ListItem) Snapshot() Snapshot {
	return Snapshot{
		RawStatus:         it.RawStatus,
		RawWorkflowStatus: it.RawWorkflowStatus,
		Charges: &billing.Charges{
			BaseQuote:  it.BaseQuote,
			TaxAmount:  it.TaxAmount,
			TotalQuote: it.TotalQuote,
			TotalPaid:  it.TotalPaid,
		},
		ScheduledDate:  it.ScheduledDate,
		ScheduledTime:  it.ScheduledTime,
		HoldRequested:  it.HoldRequested,
		PhotographerID: it.PhotographerID,
		HasRawMedia:    it.HasRawMedia,
		HasEditedMedia: it.HasEditedMedia,
	}
}

const shootColumns = `
id, display_id, COALESCE(address,''), COALESCE(client_id::text,''), COALESCE(photographer_id::text,''), COALESCE(editor_id::text,''),
status, COALESCE(workflow_status,''), COALESCE(scheduled_date,''), COALESCE(scheduled_time,''),
base_quote::text, tax_amount::text, total_quote::text, created_at, updated_at
`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanShoot(row pgx.Row) (*Shoot, error) {
	var s Shoot
	var base, tax, total string
	if err := row.Scan(
		&s.ID, &s.DisplayID, &s.Address, &s.ClientID, &s.PhotographerID, &s.EditorID,
		&s.RawStatus, &s.RawWorkflowStatus, &s.ScheduledDate, &s.ScheduledTime,
		&base, &tax, &total, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if s.BaseQuote, err = decimal.NewFromString(base); err != nil {
		return nil, err
	}
	if s.TaxAmount, err = decimal.NewFromString(tax); err != nil {
		return nil, err
	}
	if s.TotalQuote, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns shoots visible to the caller: clients see their own,
// photographers and editors their assignments, rep-class staff everything.
func (r *Repository) List(ctx context.Context, callerRole role.Role, callerID string) ([]ListItem, error) {
	q := `
SELECT s.id, s.display_id, COALESCE(s.address,''), COALESCE(s.client_id::text,''), COALESCE(s.photographer_id::text,''), COALESCE(s.editor_id::text,''),
       s.status, COALESCE(s.workflow_status,''), COALESCE(s.scheduled_date,''), COALESCE(s.scheduled_time,''),
       s.base_quote::text, s.tax_amount::text, s.total_quote::text, s.created_at, s.updated_at,
       COALESCE(SUM(p.amount), 0)::text AS total_paid,
       EXISTS (SELECT 1 FROM hold_requests h WHERE h.shoot_id = s.id AND h.decided_at IS NULL) AS hold_requested,
       EXISTS (SELECT 1 FROM media m WHERE m.shoot_id = s.id AND m.kind = 'raw') AS has_raw,
       EXISTS (SELECT 1 FROM media m WHERE m.shoot_id = s.id AND m.kind IN ('edited', 'final')) AS has_edited
FROM shoots s
LEFT JOIN payments p ON p.shoot_id = s.id
`
	var args []any
	switch {
	case callerRole.RepClass():
		// unscoped
	case callerRole == role.RolePhotographer:
		q += `WHERE s.photographer_id = $1
`
		args = append(args, callerID)
	case callerRole == role.RoleEditor:
		q += `WHERE s.editor_id = $1
`
		args = append(args, callerID)
	default:
		q += `WHERE s.client_id = $1
`
		args = append(args, callerID)
	}
	q += `GROUP BY s.id
ORDER BY s.created_at DESC
`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var it ListItem
		var base, tax, total, paid string
		if err := rows.Scan(
			&it.ID, &it.DisplayID, &it.Address, &it.ClientID, &it.PhotographerID, &it.EditorID,
			&it.RawStatus, &it.RawWorkflowStatus, &it.ScheduledDate, &it.ScheduledTime,
			&base, &tax, &total, &it.CreatedAt, &it.UpdatedAt, &paid,
			&it.HoldRequested, &it.HasRawMedia, &it.HasEditedMedia,
		); err != nil {
			return nil, err
		}
		if it.BaseQuote, err = decimal.NewFromString(base); err != nil {
			return nil, err
		}
		if it.TaxAmount, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		if it.TotalQuote, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if it.TotalPaid, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		snap := it.Snapshot()
		it.Stage = snap.Stage()
		it.AmountDue = billing.AmountDue(snap.Charges)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Shoot, error) {
	q := `SELECT ` + shootColumns + ` FROM shoots WHERE id = $1`
	return scanShoot(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Shoot, error) {
	q := `SELECT ` + shootColumns + ` FROM shoots WHERE id = $1 FOR UPDATE`
	return scanShoot(tx.QueryRow(ctx, q, id))
}

// VisibleTo mirrors the List scoping for a single record.
func (s *Shoot) VisibleTo(callerRole role.Role, callerID string) bool {
	switch {
	case callerRole.RepClass():
		return true
	case callerRole == role.RolePhotographer:
		return s.PhotographerID == callerID
	case callerRole == role.RoleEditor:
		return s.EditorID == callerID
	default:
		return s.ClientID == callerID
	}
}

func totalPaid(ctx context.Context, tx pgx.Tx, shootID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE shoot_id = $1`
	var paid string
	if err := tx.QueryRow(ctx, q, shootID).Scan(&paid); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(paid)
}

// SnapshotForUpdate locks the shoot row and assembles a fresh eligibility
// snapshot inside the transaction. Every mutating handler goes through this:
// eligibility is always recomputed from the latest state, never carried
// across an action boundary.
func SnapshotForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Shoot, Snapshot, error) {
	s, err := GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, Snapshot{}, err
	}

	paid, err := totalPaid(ctx, tx, s.ID)
	if err != nil {
		return nil, Snapshot{}, err
	}

	openHold, err := hold.HasOpen(ctx, tx, s.ID)
	if err != nil {
		return nil, Snapshot{}, err
	}

	hasRaw, hasEdited, err := media.Presence(ctx, tx, s.ID)
	if err != nil {
		return nil, Snapshot{}, err
	}

	snap := Snapshot{
		RawStatus:         s.RawStatus,
		RawWorkflowStatus: s.RawWorkflowStatus,
		Charges: &billing.Charges{
			BaseQuote:  s.BaseQuote,
			TaxAmount:  s.TaxAmount,
			TotalQuote: s.TotalQuote,
			TotalPaid:  paid,
		},
		ScheduledDate:  s.ScheduledDate,
		ScheduledTime:  s.ScheduledTime,
		HoldRequested:  openHold,
		PhotographerID: s.PhotographerID,
		HasRawMedia:    hasRaw,
		HasEditedMedia: hasEdited,
	}
	return s, snap, nil
}

// UpdateStage writes the canonical stage token back as the stored status.
// Legacy aliases are normalized away on every transition.
func UpdateStage(ctx context.Context, tx pgx.Tx, id string, next Stage) error {
	const q = `
UPDATE shoots
SET status = $1, workflow_status = $1, updated_at = NOW()
WHERE id = $2
`
	_, err := tx.Exec(ctx, q, string(next), id)
	return err
}

// MarkOnHold parks the shoot, remembering the stage it was holding from so
// Resume can restore it.
func MarkOnHold(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE shoots
SET held_from = status, status = $1, workflow_status = $1, updated_at = NOW()
WHERE id = $2
`
	_, err := tx.Exec(ctx, q, string(StageOnHold), id)
	return err
}

// Resume restores the stage recorded when the hold was applied. Shoots held
// by older code paths without a recorded stage fall back to scheduled.
func Resume(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE shoots
SET status = COALESCE(NULLIF(held_from, ''), $1),
    workflow_status = COALESCE(NULLIF(held_from, ''), $1),
    held_from = NULL,
    updated_at = NOW()
WHERE id = $2
`
	_, err := tx.Exec(ctx, q, string(StageScheduled), id)
	return err
}

func Insert(ctx context.Context, tx pgx.Tx, s *Shoot) (string, error) {
	const q = `
INSERT INTO shoots (display_id, address, client_id, photographer_id, editor_id, status, scheduled_date, scheduled_time, base_quote, tax_amount, total_quote)
VALUES ($1, $2, NULLIF($3,'')::uuid, NULLIF($4,'')::uuid, NULLIF($5,'')::uuid, $6, $7, $8, $9, $10, $11)
RETURNING id
`
	var id string
	err := tx.QueryRow(ctx, q,
		s.DisplayID, s.Address, s.ClientID, s.PhotographerID, s.EditorID,
		string(StageRequested), s.ScheduledDate, s.ScheduledTime,
		s.BaseQuote.StringFixed(billing.CurrencyScale),
		s.TaxAmount.StringFixed(billing.CurrencyScale),
		s.TotalQuote.StringFixed(billing.CurrencyScale),
	).Scan(&id)
	return id, err
}

// UpdateFields applies an edit draft. Quote fields move together so the
// total stays the sum of base and tax.
func UpdateFields(ctx context.Context, tx pgx.Tx, s *Shoot) error {
	const q = `
UPDATE shoots
SET address = $1,
    client_id = NULLIF($2,'')::uuid,
    photographer_id = NULLIF($3,'')::uuid,
    editor_id = NULLIF($4,'')::uuid,
    scheduled_date = $5,
    scheduled_time = $6,
    base_quote = $7,
    tax_amount = $8,
    total_quote = $9,
    updated_at = NOW()
WHERE id = $10
`
	_, err := tx.Exec(ctx, q,
		s.Address, s.ClientID, s.PhotographerID, s.EditorID,
		s.ScheduledDate, s.ScheduledTime,
		s.BaseQuote.StringFixed(billing.CurrencyScale),
		s.TaxAmount.StringFixed(billing.CurrencyScale),
		s.TotalQuote.StringFixed(billing.CurrencyScale),
		s.ID,
	)
	return err
}

func Delete(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `DELETE FROM shoots WHERE id = $1`
	_, err := tx.Exec(ctx, q, id)
	return err
}
