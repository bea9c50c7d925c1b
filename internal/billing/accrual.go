package billing

import "github.com/shopspring/decimal"

// CurrencyScale is the decimal scale used for all money amounts (cents).
// Amounts are rounded to this scale before comparison, so paid/due checks
// are exact and need no epsilon.
const CurrencyScale = 2

// Charges is the payment-relevant slice of a shoot record.
// TotalQuote is expected to be BaseQuote + TaxAmount but the invariant is
// enforced server-side at write time, not re-checked here.
type Charges struct {
	BaseQuote  decimal.Decimal `json:"baseQuote"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	TotalQuote decimal.Decimal `json:"totalQuote"`
	TotalPaid  decimal.Decimal `json:"totalPaid"`
}

// AmountDue returns the outstanding balance, floored at zero. Over-payment
// clamps to zero rather than surfacing a negative due amount. A nil Charges
// (payment data absent) is treated as nothing due.
func AmountDue(c *Charges) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	due := c.TotalQuote.Round(CurrencyScale).Sub(c.TotalPaid.Round(CurrencyScale))
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

func IsPaid(c *Charges) bool {
	return AmountDue(c).IsZero()
}

// Outstanding reports whether a strictly positive balance remains. This is
// the payment-state half of the "pay" eligibility predicate.
func Outstanding(c *Charges) bool {
	if c == nil {
		return false
	}
	return c.TotalPaid.Round(CurrencyScale).LessThan(c.TotalQuote.Round(CurrencyScale))
}

// AggregateDue sums per-item clamped balances across a selection. A
// partially-overpaid item contributes zero, never a negative offset.
func AggregateDue(cs []*Charges) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range cs {
		sum = sum.Add(AmountDue(c))
	}
	return sum
}

// MinorUnits converts an amount to integer cents for interfaces that do not
// accept decimals (the checkout provider).
func MinorUnits(d decimal.Decimal) int64 {
	return d.Round(CurrencyScale).Mul(decimal.NewFromInt(100)).IntPart()
}
