package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func TestWithinWindow_TwoHoursOut(t *testing.T) {
	p := Default()
	if !p.WithinCancellationFeeWindow("2026-03-10", "12:00", now) {
		t.Fatalf("2 hours before start should be inside the fee window")
	}
}

func TestWithinWindow_TenHoursOut(t *testing.T) {
	p := Default()
	if p.WithinCancellationFeeWindow("2026-03-10", "20:00", now) {
		t.Fatalf("10 hours before start should be outside the fee window")
	}
}

func TestWithinWindow_PastStart(t *testing.T) {
	p := Default()
	if p.WithinCancellationFeeWindow("2026-03-10", "09:00", now) {
		t.Fatalf("a start already in the past is not inside the window")
	}
}

func TestWithinWindow_Boundaries(t *testing.T) {
	p := Default()
	if !p.WithinCancellationFeeWindow("2026-03-10", "10:00", now) {
		t.Fatalf("exactly at start (until = 0) is inside the window")
	}
	if !p.WithinCancellationFeeWindow("2026-03-10", "14:00", now) {
		t.Fatalf("exactly at the window edge (until = 4h) is inside")
	}
}

func TestWithinWindow_FailsClosed(t *testing.T) {
	p := Default()
	cases := [][2]string{
		{"", "12:00"},
		{"2026-03-10", ""},
		{"not-a-date", "12:00"},
		{"2026-03-10", "sometime"},
	}
	for _, c := range cases {
		if p.WithinCancellationFeeWindow(c[0], c[1], now) {
			t.Fatalf("unparsable schedule %q %q must not be inside the window", c[0], c[1])
		}
	}
}

func TestWithinWindow_AlternateLayouts(t *testing.T) {
	p := Default()
	if !p.WithinCancellationFeeWindow("03/10/2026", "12:00 PM", now) {
		t.Fatalf("US-style date with 12-hour time should parse")
	}
}

func TestFee_DefaultAndOverride(t *testing.T) {
	p := Default()
	if !p.Fee().Equal(decimal.NewFromInt(60)) {
		t.Fatalf("default fee should be 60, got %s", p.Fee())
	}

	p.CancellationFee = decimal.NewFromInt(75)
	if !p.Fee().Equal(decimal.NewFromInt(75)) {
		t.Fatalf("override fee should be 75, got %s", p.Fee())
	}
}
