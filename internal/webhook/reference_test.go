package webhook

import "testing"

func TestParseKeyFromReference(t *testing.T) {
	ref := "shootops: batch_id=abc-123 source=bulk"
	if got := ParseKeyFromReference(ref, "batch_id"); got != "abc-123" {
		t.Fatalf("expected abc-123, got %q", got)
	}
	if got := ParseKeyFromReference(ref, "source"); got != "bulk" {
		t.Fatalf("expected bulk, got %q", got)
	}
}

func TestParseKeyFromReference_ToleratesPunctuation(t *testing.T) {
	ref := "hello,batch_id=zzz;other=xxx"
	if got := ParseKeyFromReference(ref, "batch_id"); got != "zzz" {
		t.Fatalf("expected zzz, got %q", got)
	}
}

func TestParseKeyFromReference_Missing(t *testing.T) {
	if got := ParseKeyFromReference("no tokens here", "batch_id"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := ParseKeyFromReference("batch_id=abc", ""); got != "" {
		t.Fatalf("empty key must return empty")
	}
}
