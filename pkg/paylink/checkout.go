package paylink

import (
	"context"
	"fmt"
	"net/http"
)

type checkoutCreateRequest struct {
	Title string `json:"title"`
	// AmountCents is the charge total in minor units.
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	// Reference is echoed back in the completion webhook; it carries the
	// batch id that maps the payment back to shoots.
	Reference string `json:"reference"`
}

type checkoutCreateResponse struct {
	Checkout struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"checkout"`
}

// CreateCheckout creates a hosted checkout and returns its id and the URL the
// payer is sent to. idempotencyKey guards against double-creation on retry.
func (c Client) CreateCheckout(ctx context.Context, title string, amountCents int64, currency, reference, idempotencyKey string) (checkoutID, checkoutURL string, err error) {
	if amountCents <= 0 {
		return "", "", fmt.Errorf("checkout amount must be positive")
	}

	var resp checkoutCreateResponse
	_, err = c.doJSON(ctx, http.MethodPost, "/v1/checkouts", idempotencyKey, checkoutCreateRequest{
		Title:       title,
		AmountCents: amountCents,
		Currency:    currency,
		Reference:   reference,
	}, &resp)
	if err != nil {
		return "", "", err
	}
	if resp.Checkout.ID == "" || resp.Checkout.URL == "" {
		return "", "", fmt.Errorf("checkout create returned empty id or url")
	}
	return resp.Checkout.ID, resp.Checkout.URL, nil
}
