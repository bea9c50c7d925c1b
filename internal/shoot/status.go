package shoot

import "strings"

// Stage is the canonical lifecycle stage of a shoot. The backend status
// vocabulary accumulated legacy aliases over the years; Stage is the closed
// set everything normalizes into. It is always derived from the raw status,
// never stored authoritatively.
type Stage string

const (
	StageRequested Stage = "requested"
	StageScheduled Stage = "scheduled"
	StageUploaded  Stage = "uploaded"
	StageEditing   Stage = "editing"
	StageReview    Stage = "review"
	StageDelivered Stage = "delivered"
	StageOnHold    Stage = "on_hold"
	StageCancelled Stage = "cancelled"
	StageDeclined  Stage = "declined"
	StageUnknown   Stage = "unknown"
)

// stageByRaw is the single normalization table. Canonical stage names map to
// themselves so Normalize is idempotent. editing_issue normalizes to review;
// the old distinct-badge treatment only ever affected display styling.
var stageByRaw = map[string]Stage{
	"requested": StageRequested,

	"scheduled":          StageScheduled,
	"booked":             StageScheduled,
	"raw_upload_pending": StageScheduled,

	"uploaded":        StageUploaded,
	"raw_uploaded":    StageUploaded,
	"photos_uploaded": StageUploaded,
	"in_progress":     StageUploaded,
	"completed":       StageUploaded,

	"editing": StageEditing,

	"review":           StageReview,
	"editing_uploaded": StageReview,
	"editing_complete": StageReview,
	"editing_issue":    StageReview,
	"pending_review":   StageReview,
	"ready_for_review": StageReview,
	"qc":               StageReview,

	"delivered":        StageDelivered,
	"ready_for_client": StageDelivered,
	"admin_verified":   StageDelivered,
	"ready":            StageDelivered,

	"on_hold": StageOnHold,
	"hold_on": StageOnHold,

	"cancelled": StageCancelled,
	"canceled":  StageCancelled,

	"declined": StageDeclined,
}

// Normalize maps a raw backend status string to its canonical stage.
// Matching is case-insensitive and tolerant of surrounding whitespace.
// Empty or unrecognized input yields StageUnknown rather than a guess.
func Normalize(raw string) Stage {
	s, ok := stageByRaw[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StageUnknown
	}
	return s
}

// KnownRawStatuses returns every raw status string the normalizer accepts,
// canonical names included. Exposed so tests can assert the vocabulary stays
// exhaustive when new backend aliases appear.
func KnownRawStatuses() []string {
	out := make([]string, 0, len(stageByRaw))
	for raw := range stageByRaw {
		out = append(out, raw)
	}
	return out
}
