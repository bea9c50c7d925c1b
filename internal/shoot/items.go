package shoot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shootops/internal/billing"
)

// SqftTier prices a service for properties up to MaxSqft square feet.
// Tiers are ordered ascending; the first tier covering the footage wins.
type SqftTier struct {
	MaxSqft int64           `json:"maxSqft"`
	Price   decimal.Decimal `json:"price"`
}

// ServiceItem is one ordered line item on a shoot (e.g. photos, floor plan,
// drone). Price is the flat price; Tiers, when present, override it by
// square footage.
type ServiceItem struct {
	ID       string          `json:"id"`
	ShootID  string          `json:"shootId"`
	Position int             `json:"position"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Tiers    []SqftTier      `json:"tiers,omitempty"`
}

type ItemValidationError struct {
	Code    string
	Message string
}

func (e ItemValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateTiers enforces the tier contract: ascending bounds, positive
// prices, no duplicate bound.
func ValidateTiers(tiers []SqftTier) error {
	prev := int64(0)
	for _, t := range tiers {
		if t.MaxSqft <= prev {
			return ItemValidationError{Code: "TIER_BOUND_INVALID", Message: "tier bounds must be ascending and positive"}
		}
		if t.Price.IsNegative() {
			return ItemValidationError{Code: "TIER_PRICE_INVALID", Message: "tier price must be >= 0"}
		}
		prev = t.MaxSqft
	}
	return nil
}

// PriceFor returns the item price for a property of the given square
// footage. Without tiers (or with zero footage) the flat price applies;
// footage beyond the last tier falls back to the last tier's price.
func (it ServiceItem) PriceFor(sqft int64) decimal.Decimal {
	if len(it.Tiers) == 0 || sqft <= 0 {
		return it.Price
	}
	for _, t := range it.Tiers {
		if sqft <= t.MaxSqft {
			return t.Price
		}
	}
	return it.Tiers[len(it.Tiers)-1].Price
}

func ListItems(ctx context.Context, db *pgxpool.Pool, shootID string) ([]ServiceItem, error) {
	const q = `
SELECT id, shoot_id, position, name, price::text, COALESCE(tiers, '[]'::jsonb)
FROM service_items
WHERE shoot_id = $1
ORDER BY position ASC
`
	rows, err := db.Query(ctx, q, shootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceItem
	for rows.Next() {
		var it ServiceItem
		var price string
		var tiersRaw []byte
		if err := rows.Scan(&it.ID, &it.ShootID, &it.Position, &it.Name, &price, &tiersRaw); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tiersRaw, &it.Tiers); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func InsertItem(ctx context.Context, tx pgx.Tx, it ServiceItem) error {
	if err := ValidateTiers(it.Tiers); err != nil {
		return err
	}
	var tiers *string
	if len(it.Tiers) > 0 {
		b, err := json.Marshal(it.Tiers)
		if err != nil {
			return err
		}
		s := string(b)
		tiers = &s
	}
	const q = `
INSERT INTO service_items (shoot_id, position, name, price, tiers)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, it.ShootID, it.Position, it.Name, it.Price.StringFixed(billing.CurrencyScale), tiers)
	return err
}
