package httpserver

import (
	"context"

	"github.com/and161185/podsub/internal/model"
)

type ctxKey string

const (
	principalKey   ctxKey = "podsub.principal"
	authFailureKey ctxKey = "podsub.authFailure"
)

// WithPrincipal stores the authenticated principal in context.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx fetches the principal from context.
func PrincipalFromCtx(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok
}

func withAuthFailure(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authFailureKey, err)
}

// AuthFailureFromCtx returns the reason a presented bearer token was rejected, if any.
func AuthFailureFromCtx(ctx context.Context) error {
	err, _ := ctx.Value(authFailureKey).(error)
	return err
}
