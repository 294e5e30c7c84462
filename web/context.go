package web

import (
	"context"

	"github.com/voxway/voxgate/domain/account"
)

type ctxKey string

const userKey ctxKey = "user"

// withUser adds the authenticated user to the context.
func withUser(ctx context.Context, u account.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// getUser retrieves the authenticated user from context. The second
// return is false on routes that skipped the auth middleware.
func getUser(ctx context.Context) (account.User, bool) {
	u, ok := ctx.Value(userKey).(account.User)
	return u, ok
}
