package webhook

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scriptedTx records the statements a handler issues. Unimplemented pgx.Tx
// methods panic, which is what we want: these tests only exercise the
// gate-then-apply path.
type scriptedTx struct {
	pgx.Tx
	gateErr error
	execs   []string
}

func (t *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if strings.Contains(sql, "webhook_events") && t.gateErr != nil {
		return pgconn.CommandTag{}, t.gateErr
	}
	return pgconn.CommandTag{}, nil
}

func (t *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{err: pgx.ErrNoRows}
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

func completedBody() []byte {
	return []byte(`{"checkout_id":"chk_1","reference":"shootops: batch_id=9b2f"}`)
}

func TestProcessEvent_ReplayRollsBackWithoutApplying(t *testing.T) {
	tx := &scriptedTx{gateErr: &pgconn.PgError{Code: "23505"}}
	h := Handlers{}

	status, err := h.processEvent(context.Background(), tx, topicCheckoutCompleted, "evt_1", completedBody())
	if status != "duplicate" {
		t.Fatalf("expected duplicate, got %q", status)
	}
	if err != pgx.ErrTxCommitRollback {
		t.Fatalf("replay must roll the transaction back, got %v", err)
	}
	for _, q := range tx.execs {
		if strings.Contains(q, "payments") {
			t.Fatalf("replay must not touch payments: %q", q)
		}
	}
}

func TestProcessEvent_GateInsertSharesTransaction(t *testing.T) {
	tx := &scriptedTx{}
	h := Handlers{}

	// Session lock finds no open batch, so nothing is applied, but the gate
	// row must have been written through the same tx.
	status, err := h.processEvent(context.Background(), tx, topicCheckoutCompleted, "evt_2", completedBody())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "ignored" {
		t.Fatalf("expected ignored, got %q", status)
	}
	if len(tx.execs) == 0 || !strings.Contains(tx.execs[0], "webhook_events") {
		t.Fatalf("gate insert must go through the handler transaction, got %v", tx.execs)
	}
}

func TestProcessEvent_UnknownTopicAcknowledged(t *testing.T) {
	tx := &scriptedTx{}
	h := Handlers{}

	status, err := h.processEvent(context.Background(), tx, "checkout_expired", "evt_3", []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "ignored" {
		t.Fatalf("expected ignored, got %q", status)
	}
}
