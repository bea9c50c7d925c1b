package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func c(quote, paid string) *Charges {
	return &Charges{
		TotalQuote: decimal.RequireFromString(quote),
		TotalPaid:  decimal.RequireFromString(paid),
	}
}

func TestAmountDue_Basic(t *testing.T) {
	got := AmountDue(c("250.00", "0"))
	if !got.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("expected 250.00 due, got %s", got)
	}
	if IsPaid(c("250.00", "0")) {
		t.Fatalf("unpaid shoot reported as paid")
	}
}

func TestAmountDue_FullyPaid(t *testing.T) {
	if !AmountDue(c("250.00", "250.00")).IsZero() {
		t.Fatalf("expected zero due")
	}
	if !IsPaid(c("250.00", "250.00")) {
		t.Fatalf("fully paid shoot not reported as paid")
	}
}

func TestAmountDue_ClampsOverpayment(t *testing.T) {
	got := AmountDue(c("100.00", "120.00"))
	if got.IsNegative() || !got.IsZero() {
		t.Fatalf("overpayment must clamp to zero, got %s", got)
	}
}

func TestAmountDue_NilCharges(t *testing.T) {
	if !AmountDue(nil).IsZero() {
		t.Fatalf("absent payment data must read as zero due")
	}
	if Outstanding(nil) {
		t.Fatalf("absent payment data must not read as outstanding")
	}
}

func TestAmountDue_CentExact(t *testing.T) {
	// 0.1 + 0.2 style cases must not leave residue at the cent level.
	got := AmountDue(c("0.30", "0.10"))
	if !got.Equal(decimal.RequireFromString("0.20")) {
		t.Fatalf("expected 0.20, got %s", got)
	}
	if !IsPaid(c("0.30", "0.30")) {
		t.Fatalf("expected paid with no epsilon needed")
	}
}

func TestAggregateDue_ConsistentWithPerItem(t *testing.T) {
	a := c("250.00", "100.00") // 150 due
	b := c("80.00", "95.00")   // overpaid, contributes 0

	got := AggregateDue([]*Charges{a, b})
	want := AmountDue(a).Add(AmountDue(b))
	if !got.Equal(want) {
		t.Fatalf("aggregate %s != sum of per-item %s", got, want)
	}
	if !got.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected 150.00, got %s", got)
	}
}

func TestMinorUnits(t *testing.T) {
	if got := MinorUnits(decimal.RequireFromString("249.99")); got != 24999 {
		t.Fatalf("expected 24999 cents, got %d", got)
	}
	if got := MinorUnits(decimal.Zero); got != 0 {
		t.Fatalf("expected 0 cents, got %d", got)
	}
}
