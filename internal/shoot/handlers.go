package shoot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shootops/internal/api"
	"shootops/internal/audit"
	"shootops/internal/billing"
	"shootops/internal/events"
	"shootops/internal/hold"
	"shootops/internal/media"
	"shootops/internal/policy"
	"shootops/pkg/db"
)

type Handlers struct {
	DB       *pgxpool.Pool
	Shoots   *Repository
	Payments *billing.Repository
	Holds    *hold.Repository
	Media    *media.Repository
	Policy   policy.Policy
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	items, err := h.Shoots.List(r.Context(), caller.Role, caller.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Eligible filters the caller's shoots to those where the given action is
// allowed. Bulk-action UIs consult this instead of re-deriving rules.
func (h Handlers) Eligible(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	action, ok := ParseAction(strings.TrimSpace(r.URL.Query().Get("action")))
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid action")
		return
	}

	items, err := h.Shoots.List(r.Context(), caller.Role, caller.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	eligible := make([]ListItem, 0, len(items))
	for _, it := range items {
		if Eligible(it.Snapshot(), action, Caller{Role: caller.Role, AccountID: caller.ID}) {
			eligible = append(eligible, it)
		}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"action": action, "items": eligible})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
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

	s, err := h.Shoots.GetByID(r.Context(), id)
	if err != nil || !s.VisibleTo(caller.Role, caller.ID) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	items, err := ListItems(r.Context(), h.DB, s.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []ServiceItem{}
	}

	payments, err := h.Payments.ListByShoot(r.Context(), s.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if payments == nil {
		payments = []billing.Payment{}
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	charges := &billing.Charges{
		BaseQuote:  s.BaseQuote,
		TaxAmount:  s.TaxAmount,
		TotalQuote: s.TotalQuote,
		TotalPaid:  paid,
	}

	var openHold *hold.Request
	openHold, _ = h.Holds.Open(r.Context(), s.ID) // absent unless requested

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"shoot":       s,
		"stage":       Snapshot{RawStatus: s.RawStatus, RawWorkflowStatus: s.RawWorkflowStatus}.Stage(),
		"services":    items,
		"payments":    payments,
		"totalPaid":   paid,
		"amountDue":   billing.AmountDue(charges),
		"paid":        billing.IsPaid(charges),
		"holdRequest": openHold,
	})
}

type upsertRequest struct {
	Address        string `json:"address"`
	ClientID       string `json:"clientId"`
	PhotographerID string `json:"photographerId"`
	EditorID       string `json:"editorId"`
	ScheduledDate  string `json:"scheduledDate"`
	ScheduledTime  string `json:"scheduledTime"`
	BaseQuote      string `json:"baseQuote"`
	TaxAmount      string `json:"taxAmount"`
}

func (req upsertRequest) quotes() (base, tax, total decimal.Decimal, err error) {
	base = decimal.Zero
	if strings.TrimSpace(req.BaseQuote) != "" {
		if base, err = decimal.NewFromString(req.BaseQuote); err != nil {
			return
		}
	}
	tax = decimal.Zero
	if strings.TrimSpace(req.TaxAmount) != "" {
		if tax, err = decimal.NewFromString(req.TaxAmount); err != nil {
			return
		}
	}
	if base.IsNegative() || tax.IsNegative() {
		err = fmt.Errorf("negative amount")
		return
	}
	// total is derived at write time so the totalQuote = baseQuote + taxAmount
	// invariant holds in storage.
	total = base.Add(tax)
	return
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}
	if !caller.Role.RepClass() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff only")
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	base, tax, total, err := req.quotes()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid quote amounts")
		return
	}

	s := &Shoot{
		DisplayID:      newDisplayID(),
		Address:        strings.TrimSpace(req.Address),
		ClientID:       strings.TrimSpace(req.ClientID),
		PhotographerID: strings.TrimSpace(req.PhotographerID),
		EditorID:       strings.TrimSpace(req.EditorID),
		ScheduledDate:  strings.TrimSpace(req.ScheduledDate),
		ScheduledTime:  strings.TrimSpace(req.ScheduledTime),
		BaseQuote:      base,
		TaxAmount:      tax,
		TotalQuote:     total,
	}

	var created *Shoot
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		id, err := Insert(r.Context(), tx, s)
		if err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &id, "SHOOT_CREATED", caller.ID, map[string]any{"displayId": s.DisplayID})
		if err := events.Insert(r.Context(), tx, id, "SHOOT_CREATED", "Shoot requested", caller.ID, time.Now(), nil); err != nil {
			return err
		}

		created, err = GetForUpdate(r.Context(), tx, id)
		return err
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "create failed")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"shoot": created})
}

func (h Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}
	if !caller.Role.RepClass() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff only")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, _, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if req.Address != "" {
			s.Address = strings.TrimSpace(req.Address)
		}
		if req.ClientID != "" {
			s.ClientID = strings.TrimSpace(req.ClientID)
		}
		if req.PhotographerID != "" {
			s.PhotographerID = strings.TrimSpace(req.PhotographerID)
		}
		if req.EditorID != "" {
			s.EditorID = strings.TrimSpace(req.EditorID)
		}
		if req.ScheduledDate != "" {
			s.ScheduledDate = strings.TrimSpace(req.ScheduledDate)
		}
		if req.ScheduledTime != "" {
			s.ScheduledTime = strings.TrimSpace(req.ScheduledTime)
		}
		if req.BaseQuote != "" || req.TaxAmount != "" {
			if req.BaseQuote != "" {
				if s.BaseQuote, err = decimal.NewFromString(req.BaseQuote); err != nil {
					api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid quote amounts")
					return pgx.ErrTxCommitRollback
				}
			}
			if req.TaxAmount != "" {
				if s.TaxAmount, err = decimal.NewFromString(req.TaxAmount); err != nil {
					api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid quote amounts")
					return pgx.ErrTxCommitRollback
				}
			}
			s.TotalQuote = s.BaseQuote.Add(s.TaxAmount)
		}

		if err := UpdateFields(r.Context(), tx, s); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "SHOOT_UPDATED", caller.ID, nil)
		if err := events.Insert(r.Context(), tx, s.ID, "SHOOT_UPDATED", "Shoot details updated", caller.ID, time.Now(), nil); err != nil {
			return err
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

type deleteRequest struct {
	Confirm bool `json:"confirm"`
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}
	if !caller.Role.AdminClass() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin only")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Confirm {
		// Destructive action: an explicit confirm field is required.
		api.WriteError(w, http.StatusConflict, "CONFIRMATION_REQUIRED", "deletion must be confirmed")
		return
	}

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !Eligible(snap, ActionDelete, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "delete not allowed")
			return pgx.ErrTxCommitRollback
		}

		_ = audit.Insert(r.Context(), tx, nil, "SHOOT_DELETED", caller.ID, map[string]any{"shootId": s.ID, "displayId": s.DisplayID})
		return Delete(r.Context(), tx, s.ID)
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// transition is the shared shape of the simple stage-changing actions.
func (h Handlers) transition(w http.ResponseWriter, r *http.Request, action Action, next Stage, eventType, summary string) {
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

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Eligible(snap, action, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", fmt.Sprintf("%s not allowed in current state", action))
			return pgx.ErrTxCommitRollback
		}

		if err := UpdateStage(r.Context(), tx, s.ID, next); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, eventType, caller.ID, map[string]any{"from": snap.Stage(), "to": next})
		if err := events.Insert(r.Context(), tx, s.ID, eventType, summary, caller.ID, time.Now(), map[string]any{"from": snap.Stage(), "to": next}); err != nil {
			return err
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

func (h Handlers) SendToEditing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionSendToEditing, StageEditing, "SENT_TO_EDITING", "Shoot sent to editing")
}

func (h Handlers) Finalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionFinalize, StageDelivered, "FINALIZED", "Shoot finalized and delivered")
}

type feeOptIn struct {
	FeeAccepted bool   `json:"feeAccepted"`
	Reason      string `json:"reason"`
}

// applyFeeIfAccepted handles the cancellation-fee prompt: inside the window
// the caller must opt in; opting in adds the fee as a line item so accrual
// picks it up. Writes the error response itself when confirmation is missing.
func (h Handlers) applyFeeIfAccepted(w http.ResponseWriter, r *http.Request, tx pgx.Tx, s *Shoot, snap Snapshot, req feeOptIn, actorID string) error {
	if !h.Policy.FeePromptRequired(snap.ScheduledDate, snap.ScheduledTime, time.Now()) {
		return nil
	}
	if !req.FeeAccepted {
		api.WriteError(w, http.StatusConflict, "FEE_CONFIRMATION_REQUIRED",
			fmt.Sprintf("a %s cancellation fee applies this close to the scheduled time; resend with feeAccepted", h.Policy.Fee().StringFixed(billing.CurrencyScale)))
		return pgx.ErrTxCommitRollback
	}

	fee := h.Policy.Fee()
	items, err := listItemsTx(r.Context(), tx, s.ID)
	if err != nil {
		return err
	}
	if err := InsertItem(r.Context(), tx, ServiceItem{
		ShootID:  s.ID,
		Position: len(items),
		Name:     "Late cancellation fee",
		Price:    fee,
	}); err != nil {
		return err
	}

	s.BaseQuote = s.BaseQuote.Add(fee)
	s.TotalQuote = s.TotalQuote.Add(fee)
	if err := UpdateFields(r.Context(), tx, s); err != nil {
		return err
	}

	_ = audit.Insert(r.Context(), tx, &s.ID, "CANCELLATION_FEE_APPLIED", actorID, map[string]any{"amount": fee.StringFixed(billing.CurrencyScale)})
	return events.Insert(r.Context(), tx, s.ID, "CANCELLATION_FEE_APPLIED", "Cancellation fee applied", actorID, time.Now(), map[string]any{"amount": fee.StringFixed(billing.CurrencyScale)})
}

func (h Handlers) Hold(w http.ResponseWriter, r *http.Request) {
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

	var req feeOptIn
	_ = json.NewDecoder(r.Body).Decode(&req)

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Eligible(snap, ActionMarkOnHold, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "hold not allowed in current state")
			return pgx.ErrTxCommitRollback
		}

		if err := h.applyFeeIfAccepted(w, r, tx, s, snap, req, caller.ID); err != nil {
			return err
		}

		if err := MarkOnHold(r.Context(), tx, s.ID); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "HOLD_APPLIED", caller.ID, map[string]any{"from": snap.Stage()})
		if err := events.Insert(r.Context(), tx, s.ID, "HOLD_APPLIED", "Shoot placed on hold", caller.ID, time.Now(), map[string]any{"from": snap.Stage()}); err != nil {
			return err
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

func (h Handlers) RequestHold(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !s.VisibleTo(caller.Role, caller.ID) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
			return pgx.ErrTxCommitRollback
		}

		if !Eligible(snap, ActionRequestHold, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "hold request not allowed in current state")
			return pgx.ErrTxCommitRollback
		}

		if err := hold.InsertRequested(r.Context(), tx, s.ID, caller.ID, strings.TrimSpace(req.Reason)); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "HOLD_REQUESTED", caller.ID, nil)
		return events.Insert(r.Context(), tx, s.ID, "HOLD_REQUESTED", "Client requested a hold", caller.ID, time.Now(), nil)
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h Handlers) DecideHoldRequest(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}
	if !caller.Role.RepClass() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff only")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req struct {
		Approve     bool   `json:"approve"`
		FeeAccepted bool   `json:"feeAccepted"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !snap.HoldRequested {
			api.WriteError(w, http.StatusConflict, "NO_OPEN_REQUEST", "no hold request awaiting decision")
			return pgx.ErrTxCommitRollback
		}

		if req.Approve {
			// Approval is the staff member applying the hold themselves, so
			// it passes through the same evaluator, against a snapshot with
			// the request closed. A shoot that moved on since the request
			// (delivered, cancelled) can no longer be parked.
			decided := snap
			decided.HoldRequested = false
			if !Eligible(decided, ActionMarkOnHold, Caller{Role: caller.Role, AccountID: caller.ID}) {
				api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "shoot can no longer be placed on hold")
				return pgx.ErrTxCommitRollback
			}
		}

		if err := hold.Decide(r.Context(), tx, s.ID, caller.ID, req.Approve); err != nil {
			return err
		}

		if req.Approve {
			if err := h.applyFeeIfAccepted(w, r, tx, s, snap, feeOptIn{FeeAccepted: req.FeeAccepted, Reason: req.Reason}, caller.ID); err != nil {
				return err
			}
			if err := MarkOnHold(r.Context(), tx, s.ID); err != nil {
				return err
			}
			_ = audit.Insert(r.Context(), tx, &s.ID, "HOLD_APPLIED", caller.ID, map[string]any{"via": "request"})
			if err := events.Insert(r.Context(), tx, s.ID, "HOLD_APPLIED", "Hold request approved", caller.ID, time.Now(), nil); err != nil {
				return err
			}
		} else {
			_ = audit.Insert(r.Context(), tx, &s.ID, "HOLD_DECLINED", caller.ID, nil)
			if err := events.Insert(r.Context(), tx, s.ID, "HOLD_DECLINED", "Hold request declined", caller.ID, time.Now(), nil); err != nil {
				return err
			}
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

func (h Handlers) Resume(w http.ResponseWriter, r *http.Request) {
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

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Eligible(snap, ActionResume, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "resume not allowed in current state")
			return pgx.ErrTxCommitRollback
		}

		if err := Resume(r.Context(), tx, s.ID); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "HOLD_RESUMED", caller.ID, nil)
		if err := events.Insert(r.Context(), tx, s.ID, "HOLD_RESUMED", "Shoot resumed from hold", caller.ID, time.Now(), nil); err != nil {
			return err
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
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

	var req feeOptIn
	_ = json.NewDecoder(r.Body).Decode(&req)

	var updated *Shoot
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Eligible(snap, ActionCancel, Caller{Role: caller.Role, AccountID: caller.ID}) {
			api.WriteError(w, http.StatusConflict, "NOT_ELIGIBLE", "cancel not allowed in current state")
			return pgx.ErrTxCommitRollback
		}

		if err := h.applyFeeIfAccepted(w, r, tx, s, snap, req, caller.ID); err != nil {
			return err
		}

		if err := UpdateStage(r.Context(), tx, s.ID, StageCancelled); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "SHOOT_CANCELLED", caller.ID, map[string]any{"from": snap.Stage(), "reason": req.Reason})
		if err := events.Insert(r.Context(), tx, s.ID, "SHOOT_CANCELLED", "Shoot cancelled", caller.ID, time.Now(), map[string]any{"from": snap.Stage()}); err != nil {
			return err
		}

		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"shoot": updated})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
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

	s, err := h.Shoots.GetByID(r.Context(), id)
	if err != nil || !s.VisibleTo(caller.Role, caller.ID) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	evs, err := events.ListByShoot(r.Context(), h.DB, s.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": evs})
}

func (h Handlers) MediaList(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	id := chi.URLParam(r, "id")
	s, err := h.Shoots.GetByID(r.Context(), id)
	if err != nil || !s.VisibleTo(caller.Role, caller.ID) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	recs, err := h.Media.ListByShoot(r.Context(), s.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if recs == nil {
		recs = []media.Record{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": recs})
}

type mediaCreateRequest struct {
	FileURL string `json:"fileUrl"`
	Kind    string `json:"kind"`
}

// MediaCreate registers an uploaded file. Raw media arriving on a scheduled
// shoot advances it to uploaded; edited media arriving during editing
// advances it to review. Transfer mechanics live elsewhere; this records the
// result.
func (h Handlers) MediaCreate(w http.ResponseWriter, r *http.Request) {
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

	var req mediaCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	kind, ok := media.ParseKind(req.Kind)
	if !ok || strings.TrimSpace(req.FileURL) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid kind or fileUrl")
		return
	}

	var rec *media.Record
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, snap, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !s.VisibleTo(caller.Role, caller.ID) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
			return pgx.ErrTxCommitRollback
		}

		const q = `
INSERT INTO media (shoot_id, uploaded_by, file_url, kind)
VALUES ($1, $2, $3, $4)
RETURNING id, shoot_id, uploaded_by, file_url, kind, created_at
`
		rec = &media.Record{}
		if err := tx.QueryRow(r.Context(), q, s.ID, caller.ID, strings.TrimSpace(req.FileURL), string(kind)).Scan(
			&rec.ID, &rec.ShootID, &rec.UploadedBy, &rec.FileURL, &rec.Kind, &rec.CreatedAt,
		); err != nil {
			return err
		}

		if err := events.Insert(r.Context(), tx, s.ID, "MEDIA_UPLOADED", "Media uploaded", caller.ID, time.Now(), map[string]any{"kind": kind}); err != nil {
			return err
		}

		switch {
		case kind == media.KindRaw && snap.Stage() == StageScheduled:
			if err := UpdateStage(r.Context(), tx, s.ID, StageUploaded); err != nil {
				return err
			}
			return events.Insert(r.Context(), tx, s.ID, "STATUS_CHANGED", "Raw media received", caller.ID, time.Now(), map[string]any{"to": StageUploaded})
		case kind != media.KindRaw && snap.Stage() == StageEditing:
			if err := UpdateStage(r.Context(), tx, s.ID, StageReview); err != nil {
				return err
			}
			return events.Insert(r.Context(), tx, s.ID, "STATUS_CHANGED", "Edited media received", caller.ID, time.Now(), map[string]any{"to": StageReview})
		}
		return nil
	})
	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"media": rec})
}

type serviceCreateRequest struct {
	Name  string     `json:"name"`
	Price string     `json:"price"`
	Tiers []SqftTier `json:"tiers"`
	Sqft  int64      `json:"sqft"`
}

// ServiceCreate adds a line item to a shoot and bumps the quote by the item's
// effective price: tiered items price off the property's square footage, flat
// items use the price as given.
func (h Handlers) ServiceCreate(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}
	if !caller.Role.RepClass() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "staff only")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req serviceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "name required")
		return
	}

	price := decimal.Zero
	if strings.TrimSpace(req.Price) != "" {
		var err error
		if price, err = decimal.NewFromString(req.Price); err != nil || price.IsNegative() {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid price")
			return
		}
	}
	if err := ValidateTiers(req.Tiers); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	var updated *Shoot
	var services []ServiceItem
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		s, _, err := SnapshotForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		existing, err := listItemsTx(r.Context(), tx, s.ID)
		if err != nil {
			return err
		}

		item := ServiceItem{
			ShootID:  s.ID,
			Position: len(existing),
			Name:     strings.TrimSpace(req.Name),
			Price:    price,
			Tiers:    req.Tiers,
		}
		if err := InsertItem(r.Context(), tx, item); err != nil {
			return err
		}

		effective := item.PriceFor(req.Sqft)
		s.BaseQuote = s.BaseQuote.Add(effective)
		s.TotalQuote = s.TotalQuote.Add(effective)
		if err := UpdateFields(r.Context(), tx, s); err != nil {
			return err
		}

		_ = audit.Insert(r.Context(), tx, &s.ID, "SERVICE_ADDED", caller.ID, map[string]any{"name": item.Name, "amount": effective.StringFixed(billing.CurrencyScale)})
		if err := events.Insert(r.Context(), tx, s.ID, "SERVICE_ADDED", "Service added: "+item.Name, caller.ID, time.Now(), map[string]any{"amount": effective.StringFixed(billing.CurrencyScale)}); err != nil {
			return err
		}

		if services, err = listItemsTx(r.Context(), tx, s.ID); err != nil {
			return err
		}
		updated, err = GetForUpdate(r.Context(), tx, s.ID)
		return err
	})
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "shoot not found")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"shoot": updated, "services": services})
}

// listItemsTx mirrors ListItems inside a transaction.
func listItemsTx(ctx context.Context, tx pgx.Tx, shootID string) ([]ServiceItem, error) {
	const q = `
SELECT id, shoot_id, position, name, price::text, COALESCE(tiers, '[]'::jsonb)
FROM service_items
WHERE shoot_id = $1
ORDER BY position ASC
`
	rows, err := tx.Query(ctx, q, shootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceItem
	for rows.Next() {
		var it ServiceItem
		var price string
		var tiersRaw []byte
		if err := rows.Scan(&it.ID, &it.ShootID, &it.Position, &it.Name, &price, &tiersRaw); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tiersRaw, &it.Tiers); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func newDisplayID() string {
	return "SH-" + strings.ToUpper(uuid.NewString()[:8])
}
