package shoot

import (
	"shootops/internal/billing"
	"shootops/internal/role"
)

// Action is an operation a caller can attempt against a shoot. The same
// evaluator backs single-shoot action endpoints and bulk-action filtering,
// so the two can never disagree.
type Action string

const (
	ActionPay           Action = "pay"
	ActionSendToEditing Action = "sendToEditing"
	ActionFinalize      Action = "finalize"
	ActionDelete        Action = "delete"
	ActionMarkOnHold    Action = "markOnHold"
	ActionRequestHold   Action = "requestHold"
	ActionResume        Action = "resumeFromHold"
	ActionCancel        Action = "cancelShoot"
)

// Snapshot is the immutable, payment- and workflow-relevant slice of a shoot
// record. It carries exactly what eligibility and accrual need; media lists,
// notes and history stay out.
type Snapshot struct {
	RawStatus         string
	RawWorkflowStatus string

	Charges *billing.Charges

	ScheduledDate string
	ScheduledTime string

	HoldRequested  bool
	PhotographerID string

	HasRawMedia    bool
	HasEditedMedia bool
}

// Stage normalizes the snapshot's raw status fields. The workflow status
// wins when it is recognizable; the plain status is the fallback for older
// records that never carried one.
func (s Snapshot) Stage() Stage {
	if st := Normalize(s.RawWorkflowStatus); st != StageUnknown {
		return st
	}
	return Normalize(s.RawStatus)
}

type Caller struct {
	Role      role.Role
	AccountID string
}

// holdEligibleStage is where a shoot can be put on (or requested to be put
// on) hold. The same set applies everywhere so bulk filters and per-shoot
// buttons never disagree.
func holdEligibleStage(st Stage) bool {
	return st == StageScheduled || st == StageUploaded || st == StageEditing
}

// Eligible reports whether the caller may perform the action on the shoot as
// snapshotted. It is pure and total: malformed or missing input degrades to
// "not eligible", never an error. Callers must re-evaluate against a fresh
// snapshot after every mutation.
func Eligible(s Snapshot, a Action, c Caller) bool {
	st := s.Stage()

	switch a {
	case ActionPay:
		return billing.Outstanding(s.Charges)

	case ActionSendToEditing:
		if st != StageUploaded {
			return false
		}
		// Edited media with no raw media means the shoot was already
		// processed out of band; sending it again would double-process.
		return !(s.HasEditedMedia && !s.HasRawMedia)

	case ActionFinalize:
		if !c.Role.AdminClass() {
			return false
		}
		return st == StageUploaded || st == StageEditing || st == StageReview

	case ActionDelete:
		// No stage precondition. The destructive-action confirmation is a
		// handler concern, not an eligibility one.
		return true

	case ActionMarkOnHold:
		return c.Role.RepClass() && holdEligibleStage(st) && !s.HoldRequested

	case ActionRequestHold:
		return c.Role.IsClient() && holdEligibleStage(st) && !s.HoldRequested

	case ActionResume:
		if st != StageOnHold {
			return false
		}
		if c.Role.RepClass() {
			return true
		}
		return c.AccountID != "" && c.AccountID == s.PhotographerID

	case ActionCancel:
		if !c.Role.AdminClass() {
			return false
		}
		return st != StageCancelled && st != StageDeclined && st != StageUnknown

	default:
		return false
	}
}

// ParseAction validates an action name coming off the wire.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionPay, ActionSendToEditing, ActionFinalize, ActionDelete,
		ActionMarkOnHold, ActionRequestHold, ActionResume, ActionCancel:
		return Action(s), true
	default:
		return "", false
	}
}
