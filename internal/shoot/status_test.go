package shoot

import "testing"

func TestNormalize_Table(t *testing.T) {
	cases := map[string]Stage{
		"requested":          StageRequested,
		"booked":             StageScheduled,
		"raw_upload_pending": StageScheduled,
		"raw_uploaded":       StageUploaded,
		"photos_uploaded":    StageUploaded,
		"in_progress":        StageUploaded,
		"completed":          StageUploaded,
		"editing":            StageEditing,
		"editing_uploaded":   StageReview,
		"editing_complete":   StageReview,
		"editing_issue":      StageReview,
		"pending_review":     StageReview,
		"ready_for_review":   StageReview,
		"qc":                 StageReview,
		"ready_for_client":   StageDelivered,
		"admin_verified":     StageDelivered,
		"ready":              StageDelivered,
		"on_hold":            StageOnHold,
		"hold_on":            StageOnHold,
		"cancelled":          StageCancelled,
		"canceled":           StageCancelled,
		"declined":           StageDeclined,
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalize_CaseAndWhitespaceInsensitive(t *testing.T) {
	if got := Normalize("  Photos_Uploaded "); got != StageUploaded {
		t.Fatalf("expected uploaded, got %q", got)
	}
	if got := Normalize("ADMIN_VERIFIED"); got != StageDelivered {
		t.Fatalf("expected delivered, got %q", got)
	}
}

func TestNormalize_UnknownAndEmpty(t *testing.T) {
	if got := Normalize(""); got != StageUnknown {
		t.Fatalf("empty input: expected unknown, got %q", got)
	}
	if got := Normalize("definitely_not_a_status"); got != StageUnknown {
		t.Fatalf("garbage input: expected unknown, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range KnownRawStatuses() {
		once := Normalize(raw)
		if twice := Normalize(string(once)); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

// Every known raw status must resolve to a real stage; StageUnknown inside
// the vocabulary would mean the table lost an entry.
func TestNormalize_VocabularyExhaustive(t *testing.T) {
	for _, raw := range KnownRawStatuses() {
		if Normalize(raw) == StageUnknown {
			t.Fatalf("known raw status %q normalizes to unknown", raw)
		}
	}
}
