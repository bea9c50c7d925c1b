package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shootops/internal/api"
	"shootops/internal/audit"
	"shootops/internal/billing"
	"shootops/internal/events"
	"shootops/pkg/config"
	"shootops/pkg/db"
)

const (
	signatureHeader = "X-Paylink-Signature"
	eventIDHeader   = "X-Paylink-Event-Id"

	topicCheckoutCompleted = "checkout_completed"

	webhookActor = "paylink"
)

type Handlers struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

type checkoutCompletedPayload struct {
	CheckoutID string `json:"checkout_id"`
	Reference  string `json:"reference"`
}

// Receive handles provider callbacks at /webhooks/payments/{topic}.
//
// The idempotency gate and the payment application share one transaction: a
// replay hits the unique event id and commits nothing, while a transient
// failure rolls the gate back with everything else so the provider's retry
// can process the delivery for real. Payloads we cannot act on are logged and
// acknowledged rather than bounced back into the retry queue.
func (h Handlers) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unreadable body")
		return
	}

	if !VerifySignature(body, r.Header.Get(signatureHeader), h.Cfg.WebhookSecret) {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook signature mismatch")
		return
	}

	topic := chi.URLParam(r, "topic")

	eventID := r.Header.Get(eventIDHeader)
	if eventID == "" {
		// Fallback idempotency key when the event id header isn't present.
		sum := sha256.Sum256(body)
		eventID = hex.EncodeToString(sum[:])
	}

	var status string
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, err := h.processEvent(r.Context(), tx, topic, eventID, body)
		status = s
		return err
	})
	if err != nil && err != pgx.ErrTxCommitRollback {
		log.Printf("webhook: topic %s event %s: %v", topic, eventID, err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// processEvent runs the idempotency gate and the topic handler on the same
// transaction. A replayed event id surfaces as "duplicate" and rolls back; a
// processing error rolls the gate row back with everything else so the
// provider's retry starts clean.
func (h Handlers) processEvent(ctx context.Context, tx pgx.Tx, topic, eventID string, body []byte) (string, error) {
	if err := insertWebhookEvent(ctx, tx, eventID, topic); err != nil {
		if isUniqueViolation(err) {
			return "duplicate", pgx.ErrTxCommitRollback
		}
		return "", err
	}

	switch topic {
	case topicCheckoutCompleted:
		applied, err := h.applyCheckoutCompleted(ctx, tx, body)
		if err != nil {
			return "", err
		}
		if !applied {
			return "ignored", nil
		}
		return "applied", nil
	default:
		log.Printf("webhook: ignoring topic %q event %s", topic, eventID)
		return "ignored", nil
	}
}

// applyCheckoutCompleted splits the captured session amounts into payment
// rows. Returns false when the payload carries nothing we can reconcile.
func (h Handlers) applyCheckoutCompleted(ctx context.Context, tx pgx.Tx, body []byte) (bool, error) {
	var payload checkoutCompletedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("webhook: bad checkout_completed payload: %v", err)
		return false, nil
	}

	batchID := ParseKeyFromReference(payload.Reference, "batch_id")
	if batchID == "" {
		log.Printf("webhook: checkout %s carries no batch_id reference", payload.CheckoutID)
		return false, nil
	}

	items, err := billing.SessionItemsForUpdate(ctx, tx, batchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown batch or a session already settled by an earlier
			// delivery. Nothing to apply.
			log.Printf("webhook: no open session for batch %s", batchID)
			return false, nil
		}
		return false, err
	}

	now := time.Now()
	for _, it := range items {
		if !it.Amount.IsPositive() {
			continue
		}
		if err := billing.InsertPayment(ctx, tx, it.ShootID, it.Amount, "checkout", payload.CheckoutID); err != nil {
			return false, err
		}
		_ = audit.Insert(ctx, tx, &it.ShootID, "PAYMENT_RECEIVED", webhookActor, map[string]any{
			"batchId":    batchID,
			"checkoutId": payload.CheckoutID,
			"amount":     it.Amount.StringFixed(billing.CurrencyScale),
		})
		if err := events.Insert(ctx, tx, it.ShootID, "PAYMENT_RECEIVED", "Payment received", webhookActor, now, map[string]any{
			"batchId": batchID,
			"amount":  it.Amount.StringFixed(billing.CurrencyScale),
		}); err != nil {
			return false, err
		}
	}

	if err := billing.CompleteSession(ctx, tx, batchID); err != nil {
		return false, err
	}
	return true, nil
}

func insertWebhookEvent(ctx context.Context, tx pgx.Tx, eventID, topic string) error {
	const q = `
INSERT INTO webhook_events (event_id, topic)
VALUES ($1, $2)
`
	_, err := tx.Exec(ctx, q, eventID, topic)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
