package api

import (
	"context"

	"shootops/internal/account"
)

type ctxKey string

const ctxKeyCaller ctxKey = "caller"

func WithCaller(ctx context.Context, a *account.Account) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, a)
}

func CallerFromContext(ctx context.Context) *account.Account {
	v := ctx.Value(ctxKeyCaller)
	if v == nil {
		return nil
	}
	a, _ := v.(*account.Account)
	return a
}
