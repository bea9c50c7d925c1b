package payment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shootops/internal/api"
	"shootops/internal/audit"
	"shootops/internal/billing"
	"shootops/internal/events"
	"shootops/internal/shoot"
	"shootops/pkg/config"
	"shootops/pkg/db"
	"shootops/pkg/paylink"
)

type Handlers struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

func (h Handlers) client() paylink.Client {
	return paylink.Client{
		BaseURL: h.Cfg.Paylink.BaseURL,
		APIKey:  h.Cfg.Paylink.APIKey,
	}
}

// Pay creates a checkout link for a single shoot's outstanding balance.
func (h Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var resp any
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := shoot.SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !s.VisibleTo(caller.Role, caller.ID) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
			return pgx.ErrTxCommitRollback
		}

		if !shoot.Eligible(snap, shoot.ActionPay, shoot.Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOTHING_DUE", "no outstanding balance")
			return pgx.ErrTxCommitRollback
		}

		due := billing.AmountDue(snap.Charges)
		batchID := uuid.NewString()
		title := fmt.Sprintf("Shoot %s payment", s.DisplayID)
		reference := fmt.Sprintf("shootops: batch_id=%s", batchID)

		checkoutID, checkoutURL, err := h.client().CreateCheckout(
			r.Context(), title, billing.MinorUnits(due), h.Cfg.Paylink.Currency, reference, batchID,
		)
		if err != nil {
			return err
		}

		items := []billing.SessionItem{{ShootID: s.ID, Amount: due}}
		if err := billing.CreateSession(r.Context(), tx, batchID, checkoutID, checkoutURL, items); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "PAYMENT_REQUESTED", caller.ID, map[string]any{"batchId": batchID, "amount": due.StringFixed(billing.CurrencyScale)})
		if err := events.Insert(r.Context(), tx, s.ID, "PAYMENT_REQUESTED", "Payment link created", caller.ID, time.Now(), map[string]any{"batchId": batchID}); err != nil {
			return err
		}

		resp = map[string]any{
			"batchId":     batchID,
			"checkoutId":  checkoutID,
			"checkoutUrl": checkoutURL,
			"amount":      due,
		}
		return nil
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		h.writeInternal(w, "request payment failed", err)
		return
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

type bulkRequest struct {
	ShootIDs []string `json:"shootIds"`
}

// PayBulk creates one checkout session covering the aggregate outstanding
// balance of a selection. Per-shoot due amounts are captured at creation so
// the completion webhook splits the payment exactly as quoted; already-paid
// shoots contribute nothing.
func (h Handlers) PayBulk(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ShootIDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "shootIds required")
		return
	}

	var resp any
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		var items []billing.SessionItem
		var charges []*billing.Charges
		shootIDs := make([]string, 0, len(req.ShootIDs))

		for _, id := range req.ShootIDs {
			s, snap, err := shoot.SnapshotForUpdate(r.Context(), tx, id)
			if err != nil {
				api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found: "+id)
				return pgx.ErrTxCommitRollback
			}
			if !s.VisibleTo(caller.Role, caller.ID) {
				api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found: "+id)
				return pgx.ErrTxCommitRollback
			}
			if !shoot.Eligible(snap, shoot.ActionPay, shoot.Caller{Role: caller.Role, AccountID: caller.ID}) {
				continue
			}
			items = append(items, billing.SessionItem{ShootID: s.ID, Amount: billing.AmountDue(snap.Charges)})
			charges = append(charges, snap.Charges)
			shootIDs = append(shootIDs, s.ID)
		}

		total := billing.AggregateDue(charges)

		if len(items) == 0 || !total.IsPositive() {
			api.WriteError(w, http.StatusConflict, "NOTHING_DUE", "selection has no outstanding balance")
			return pgx.ErrTxCommitRollback
		}

		batchID := uuid.NewString()
		title := fmt.Sprintf("Payment for %d shoots", len(items))
		reference := fmt.Sprintf("shootops: batch_id=%s", batchID)

		checkoutID, checkoutURL, err := h.client().CreateCheckout(
			r.Context(), title, billing.MinorUnits(total), h.Cfg.Paylink.Currency, reference, batchID,
		)
		if err != nil {
			return err
		}

		if err := billing.CreateSession(r.Context(), tx, batchID, checkoutID, checkoutURL, items); err != nil {
			return err
		}

		now := time.Now()
		for _, sid := range shootIDs {
			_ = audit.Insert(r.Context(), tx, &sid, "PAYMENT_REQUESTED", caller.ID, map[string]any{"batchId": batchID})
			if err := events.Insert(r.Context(), tx, sid, "PAYMENT_REQUESTED", "Bulk payment link created", caller.ID, now, map[string]any{"batchId": batchID}); err != nil {
				return err
			}
		}

		resp = map[string]any{
			"batchId":     batchID,
			"checkoutId":  checkoutID,
			"checkoutUrl": checkoutURL,
			"amount":      total,
			"shootIds":    shootIDs,
		}
		return nil
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		h.writeInternal(w, "bulk payment failed", err)
		return
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

func (h Handlers) writeInternal(w http.ResponseWriter, msg string, err error) {
	if h.Cfg.AppEnv != "prod" {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", fmt.Sprintf("%s: %v", msg, err))
		return
	}
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
