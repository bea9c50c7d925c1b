package shoot

import (
	"testing"

	"github.com/shopspring/decimal"

	"shootops/internal/billing"
	"shootops/internal/role"
)

func charges(quote, paid string) *billing.Charges {
	return &billing.Charges{
		TotalQuote: decimal.RequireFromString(quote),
		TotalPaid:  decimal.RequireFromString(paid),
	}
}

func admin() Caller  { return Caller{Role: role.RoleAdmin, AccountID: "a-1"} }
func rep() Caller    { return Caller{Role: role.RoleRep, AccountID: "r-1"} }
func client() Caller { return Caller{Role: role.RoleClient, AccountID: "c-1"} }

func TestEligible_Pay(t *testing.T) {
	s := Snapshot{RawStatus: "booked", Charges: charges("250.00", "0")}
	if !Eligible(s, ActionPay, client()) {
		t.Fatalf("unpaid shoot should be eligible for pay")
	}

	s.Charges = charges("250.00", "250.00")
	if Eligible(s, ActionPay, client()) {
		t.Fatalf("fully paid shoot should not be eligible for pay")
	}

	s.Charges = charges("250.00", "300.00")
	if Eligible(s, ActionPay, client()) {
		t.Fatalf("overpaid shoot should not be eligible for pay")
	}

	s.Charges = nil
	if Eligible(s, ActionPay, client()) {
		t.Fatalf("missing payment data must degrade to not eligible")
	}
}

func TestEligible_SendToEditing(t *testing.T) {
	s := Snapshot{RawStatus: "photos_uploaded", HasRawMedia: true}
	if !Eligible(s, ActionSendToEditing, admin()) {
		t.Fatalf("uploaded shoot should be eligible for sendToEditing")
	}

	// Never directly from scheduled.
	s.RawStatus = "booked"
	if Eligible(s, ActionSendToEditing, admin()) {
		t.Fatalf("scheduled shoot must not be eligible for sendToEditing")
	}

	// Edited media present without any raw media: double-processing guard.
	s = Snapshot{RawStatus: "uploaded", HasEditedMedia: true, HasRawMedia: false}
	if Eligible(s, ActionSendToEditing, admin()) {
		t.Fatalf("edited-without-raw inconsistency must block sendToEditing")
	}
}

func TestEligible_Finalize(t *testing.T) {
	for _, raw := range []string{"uploaded", "editing", "pending_review"} {
		s := Snapshot{RawStatus: raw}
		if !Eligible(s, ActionFinalize, admin()) {
			t.Fatalf("admin should be able to finalize from %q", raw)
		}
		if Eligible(s, ActionFinalize, rep()) {
			t.Fatalf("rep must not finalize from %q", raw)
		}
	}

	// admin_verified normalizes to delivered: already finalized.
	s := Snapshot{RawStatus: "admin_verified"}
	if Eligible(s, ActionFinalize, admin()) {
		t.Fatalf("delivered shoot must not be eligible for finalize")
	}
	// ...but cancel remains available to admin.
	if !Eligible(s, ActionCancel, admin()) {
		t.Fatalf("delivered shoot should still be cancellable by admin")
	}
}

func TestEligible_HoldRoleSplit(t *testing.T) {
	s := Snapshot{RawStatus: "booked"}

	if !Eligible(s, ActionMarkOnHold, rep()) {
		t.Fatalf("rep should be able to mark on hold")
	}
	if Eligible(s, ActionRequestHold, rep()) {
		t.Fatalf("rep must never be offered requestHold")
	}

	if !Eligible(s, ActionRequestHold, client()) {
		t.Fatalf("client should be able to request hold")
	}
	if Eligible(s, ActionMarkOnHold, client()) {
		t.Fatalf("client must never be offered markOnHold")
	}
}

func TestEligible_HoldBlockedByPendingRequestOrStage(t *testing.T) {
	s := Snapshot{RawStatus: "uploaded", HoldRequested: true}
	if Eligible(s, ActionMarkOnHold, rep()) || Eligible(s, ActionRequestHold, client()) {
		t.Fatalf("pending hold request must block further hold actions")
	}

	s = Snapshot{RawStatus: "on_hold"}
	if Eligible(s, ActionMarkOnHold, rep()) {
		t.Fatalf("shoot already on hold must not be eligible for markOnHold")
	}
}

func TestEligible_HoldApprovalAfterShootMovedOn(t *testing.T) {
	// Approving a stale hold request replays markOnHold against a snapshot
	// with the request closed; a shoot that has since been delivered or
	// cancelled must refuse it.
	for _, raw := range []string{"delivered", "canceled", "requested"} {
		s := Snapshot{RawStatus: raw, HoldRequested: false}
		if Eligible(s, ActionMarkOnHold, rep()) {
			t.Fatalf("hold must not apply to a %q shoot", raw)
		}
	}

	s := Snapshot{RawStatus: "uploaded", HoldRequested: false}
	if !Eligible(s, ActionMarkOnHold, rep()) {
		t.Fatalf("hold approval should still work while the shoot is hold-eligible")
	}
}

func TestEligible_Resume(t *testing.T) {
	s := Snapshot{RawStatus: "hold_on", PhotographerID: "p-9"}

	if !Eligible(s, ActionResume, rep()) {
		t.Fatalf("rep should be able to resume a held shoot")
	}
	if !Eligible(s, ActionResume, Caller{Role: role.RolePhotographer, AccountID: "p-9"}) {
		t.Fatalf("assigned photographer should be able to resume")
	}
	if Eligible(s, ActionResume, Caller{Role: role.RolePhotographer, AccountID: "p-other"}) {
		t.Fatalf("unassigned photographer must not resume")
	}
	if Eligible(Snapshot{RawStatus: "booked"}, ActionResume, rep()) {
		t.Fatalf("resume only applies to on_hold shoots")
	}
}

func TestEligible_Cancel(t *testing.T) {
	if Eligible(Snapshot{RawStatus: "canceled"}, ActionCancel, admin()) {
		t.Fatalf("cancelled shoot must not be cancellable again")
	}
	if Eligible(Snapshot{RawStatus: "declined"}, ActionCancel, admin()) {
		t.Fatalf("declined shoot must not be cancellable")
	}
	if Eligible(Snapshot{RawStatus: "nonsense"}, ActionCancel, admin()) {
		t.Fatalf("unknown stage must fail closed for cancel")
	}
	if Eligible(Snapshot{RawStatus: "booked"}, ActionCancel, rep()) {
		t.Fatalf("cancel is admin-class only")
	}
}

func TestEligible_Delete(t *testing.T) {
	if !Eligible(Snapshot{RawStatus: "admin_verified"}, ActionDelete, admin()) {
		t.Fatalf("delete has no stage precondition")
	}
}

func TestSnapshotStage_WorkflowStatusWins(t *testing.T) {
	s := Snapshot{RawStatus: "booked", RawWorkflowStatus: "editing_uploaded"}
	if got := s.Stage(); got != StageReview {
		t.Fatalf("workflow status should win, got %q", got)
	}

	s = Snapshot{RawStatus: "booked", RawWorkflowStatus: "??"}
	if got := s.Stage(); got != StageScheduled {
		t.Fatalf("unrecognizable workflow status should fall back, got %q", got)
	}
}
