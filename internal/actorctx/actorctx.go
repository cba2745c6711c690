// Package actorctx carries the authenticated identity on a request context.
package actorctx

import (
	"context"

	"github.com/geocoder89/socialhub/internal/domain/account"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id account.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (account.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(account.Identity)

	return id, ok && id.UserID != ""
}
