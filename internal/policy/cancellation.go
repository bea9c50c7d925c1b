package policy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCancellationFee is the flat fee offered when a shoot is cancelled
// or held close to its scheduled start. Override via config, never by
// repeating the literal at call sites.
var DefaultCancellationFee = decimal.NewFromInt(60)

// DefaultFeeWindow is how close to the scheduled start the fee prompt kicks in.
const DefaultFeeWindow = 4 * time.Hour

type Policy struct {
	CancellationFee decimal.Decimal
	FeeWindow       time.Duration
	Location        *time.Location
}

func Default() Policy {
	return Policy{
		CancellationFee: DefaultCancellationFee,
		FeeWindow:       DefaultFeeWindow,
		Location:        time.UTC,
	}
}

// scheduled date/time formats the backend has produced over time.
var dateLayouts = []string{"2006-01-02", "01/02/2006"}
var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// WithinCancellationFeeWindow reports whether now falls inside the fee
// window before the scheduled start: 0 <= until <= FeeWindow. A missing or
// unparsable date/time is never inside the window; a bad record must not
// trigger a fee prompt.
func (p Policy) WithinCancellationFeeWindow(dateStr, timeStr string, now time.Time) bool {
	start, ok := p.parseStart(dateStr, timeStr)
	if !ok {
		return false
	}
	until := start.Sub(now)
	return until >= 0 && until <= p.feeWindow()
}

// FeePromptRequired is WithinCancellationFeeWindow under the name handlers
// use: it decides whether the caller must opt in to the fee before a hold or
// cancel proceeds. The policy itself never applies the fee.
func (p Policy) FeePromptRequired(dateStr, timeStr string, now time.Time) bool {
	return p.WithinCancellationFeeWindow(dateStr, timeStr, now)
}

func (p Policy) Fee() decimal.Decimal {
	if p.CancellationFee.IsZero() {
		return DefaultCancellationFee
	}
	return p.CancellationFee
}

func (p Policy) feeWindow() time.Duration {
	if p.FeeWindow <= 0 {
		return DefaultFeeWindow
	}
	return p.FeeWindow
}

func (p Policy) parseStart(dateStr, timeStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" || timeStr == "" {
		return time.Time{}, false
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	for _, dl := range dateLayouts {
		for _, tl := range timeLayouts {
			if t, err := time.ParseInLocation(dl+" "+tl, dateStr+" "+timeStr, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
