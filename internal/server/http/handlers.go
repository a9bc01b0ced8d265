// Package httpserver exposes the podsub JSON API over HTTP.
package httpserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/service"
)

// AuthService is the credential lifecycle used by the auth endpoints.
type AuthService interface {
	Register(ctx context.Context, username, password string) (uuid.UUID, error)
	Login(ctx context.Context, username, password, remoteAddr string) (model.Tokens, model.User, error)
	Refresh(ctx context.Context, username, raw string) (model.Tokens, error)
	Logout(ctx context.Context, username, raw string) error
}

// SubscriptionService manages the caller's subscriptions.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID int64, rawURL string, claimed *uuid.UUID) (service.SubscribeResult, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]model.Subscription, error)
	Unsubscribe(ctx context.Context, userID int64, feedUUID uuid.UUID) error
}

// UserService serves user lookups and role changes.
type UserService interface {
	Get(ctx context.Context, stableID uuid.UUID) (*model.User, error)
	SetRoles(ctx context.Context, stableID uuid.UUID, roles []string) ([]string, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers wires services into HTTP handlers.
type Handlers struct {
	auth  AuthService
	subs  SubscriptionService
	users UserService
	db    Pinger
	log   *zap.Logger
}

// NewHandlers constructs Handlers. db may be nil.
func NewHandlers(auth AuthService, subs SubscriptionService, users UserService, db Pinger, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{auth: auth, subs: subs, users: users, db: db, log: log}
}
