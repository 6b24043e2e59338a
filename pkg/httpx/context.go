package httpx

import (
	"context"

	"github.com/qwanyx/qwanyx/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyWorkspace ctxKey = "workspace"
	CtxKeyEmail     ctxKey = "email"
	CtxKeyClaims    ctxKey = "claims"
)

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}

// WorkspaceFromContext returns the workspace code the bearer token was issued for.
func WorkspaceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyWorkspace).(string)
	return v, ok && v != ""
}

func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyWorkspace, c.Workspace)
	ctx = context.WithValue(ctx, CtxKeyEmail, c.Email)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
