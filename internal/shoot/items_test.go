package shoot

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestPriceFor_TierSelection(t *testing.T) {
	it := ServiceItem{
		Name:  "Photos",
		Price: d("150.00"),
		Tiers: []SqftTier{
			{MaxSqft: 1500, Price: d("150.00")},
			{MaxSqft: 3000, Price: d("200.00")},
			{MaxSqft: 5000, Price: d("275.00")},
		},
	}

	cases := []struct {
		sqft int64
		want string
	}{
		{1000, "150.00"},
		{1500, "150.00"},
		{1501, "200.00"},
		{3000, "200.00"},
		{4999, "275.00"},
	}
	for _, c := range cases {
		if got := it.PriceFor(c.sqft); !got.Equal(d(c.want)) {
			t.Fatalf("PriceFor(%d) = %s, want %s", c.sqft, got, c.want)
		}
	}
}

func TestPriceFor_BeyondLastTier(t *testing.T) {
	it := ServiceItem{
		Price: d("100.00"),
		Tiers: []SqftTier{
			{MaxSqft: 2000, Price: d("120.00")},
			{MaxSqft: 4000, Price: d("180.00")},
		},
	}
	if got := it.PriceFor(9000); !got.Equal(d("180.00")) {
		t.Fatalf("footage beyond last tier should use last tier price, got %s", got)
	}
}

func TestPriceFor_FlatFallback(t *testing.T) {
	it := ServiceItem{Price: d("99.00")}
	if got := it.PriceFor(2500); !got.Equal(d("99.00")) {
		t.Fatalf("no tiers should use flat price, got %s", got)
	}

	tiered := ServiceItem{
		Price: d("99.00"),
		Tiers: []SqftTier{{MaxSqft: 2000, Price: d("150.00")}},
	}
	if got := tiered.PriceFor(0); !got.Equal(d("99.00")) {
		t.Fatalf("zero footage should use flat price, got %s", got)
	}
}

func TestValidateTiers(t *testing.T) {
	ok := []SqftTier{
		{MaxSqft: 1000, Price: d("100.00")},
		{MaxSqft: 2000, Price: d("150.00")},
	}
	if err := ValidateTiers(ok); err != nil {
		t.Fatalf("valid tiers rejected: %v", err)
	}
	if err := ValidateTiers(nil); err != nil {
		t.Fatalf("empty tiers rejected: %v", err)
	}

	descending := []SqftTier{
		{MaxSqft: 2000, Price: d("100.00")},
		{MaxSqft: 1000, Price: d("150.00")},
	}
	if err := ValidateTiers(descending); err == nil {
		t.Fatalf("descending bounds accepted")
	}

	duplicate := []SqftTier{
		{MaxSqft: 1000, Price: d("100.00")},
		{MaxSqft: 1000, Price: d("150.00")},
	}
	if err := ValidateTiers(duplicate); err == nil {
		t.Fatalf("duplicate bound accepted")
	}

	negative := []SqftTier{{MaxSqft: 1000, Price: d("-1.00")}}
	if err := ValidateTiers(negative); err == nil {
		t.Fatalf("negative price accepted")
	}
}
