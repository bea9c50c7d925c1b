package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"shootops/internal/role"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, email, COALESCE(display_name,''), account_role, created_at
FROM accounts
WHERE id = $1
`
	return r.scanOne(ctx, q, id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `
SELECT id, email, COALESCE(display_name,''), account_role, created_at
FROM accounts
WHERE lower(email) = lower($1)
`
	return r.scanOne(ctx, q, email)
}

func (r *Repository) scanOne(ctx context.Context, q string, arg any) (*Account, error) {
	a := &Account{}
	var roleStr string
	if err := r.db.QueryRow(ctx, q, arg).Scan(
		&a.ID, &a.Email, &a.DisplayName, &roleStr, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := role.Parse(roleStr)
	if err != nil {
		return nil, err
	}
	a.Role = parsed
	return a, nil
}
