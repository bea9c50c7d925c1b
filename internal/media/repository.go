package media

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Kind string

const (
	KindRaw    Kind = "raw"
	KindEdited Kind = "edited"
	KindFinal  Kind = "final"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindRaw, KindEdited, KindFinal:
		return Kind(s), true
	default:
		return "", false
	}
}

type Record struct {
	ID         string    `json:"id"`
	ShootID    string    `json:"shootId"`
	UploadedBy string    `json:"uploadedBy"`
	FileURL    string    `json:"fileUrl"`
	Kind       Kind      `json:"kind"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, shootID, uploadedBy, fileURL string, kind Kind) (*Record, error) {
	const q = `
INSERT INTO media (shoot_id, uploaded_by, file_url, kind)
VALUES ($1, $2, $3, $4)
RETURNING id, shoot_id, uploaded_by, file_url, kind, created_at
`
	var rec Record
	if err := r.db.QueryRow(ctx, q, shootID, uploadedBy, fileURL, string(kind)).Scan(
		&rec.ID, &rec.ShootID, &rec.UploadedBy, &rec.FileURL, &rec.Kind, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) ListByShoot(ctx context.Context, shootID string) ([]Record, error) {
	const q = `
SELECT id, shoot_id, uploaded_by, file_url, kind, created_at
FROM media
WHERE shoot_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.Query(ctx, q, shootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ShootID, &rec.UploadedBy, &rec.FileURL, &rec.Kind, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Presence reports whether the shoot has any raw and any edited media.
// Feeds the send-to-editing double-processing guard.
func Presence(ctx context.Context, tx pgx.Tx, shootID string) (hasRaw, hasEdited bool, err error) {
	const q = `
SELECT
  EXISTS (SELECT 1 FROM media WHERE shoot_id = $1 AND kind = 'raw'),
  EXISTS (SELECT 1 FROM media WHERE shoot_id = $1 AND kind IN ('edited', 'final'))
`
	err = tx.QueryRow(ctx, q, shootID).Scan(&hasRaw, &hasEdited)
	return hasRaw, hasEdited, err
}
