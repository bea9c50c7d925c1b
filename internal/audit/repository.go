package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Insert appends an audit row. shootID is nil for platform-level actions.
// Metadata is marshalled to jsonb; marshalling failures degrade to null
// rather than failing the surrounding transaction.
func Insert(ctx context.Context, tx pgx.Tx, shootID *string, action, actorID string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (shoot_id, action, actor_id, metadata)
VALUES ($1, $2, $3, CAST($4 AS jsonb))
`
	_, err := tx.Exec(ctx, q, shootID, action, actorID, s)
	return err
}
