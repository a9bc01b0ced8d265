package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/token"
)

// TokenVerifier checks a compact access token.
type TokenVerifier interface {
	Verify(tok string) (*token.Claims, error)
}

// UserResolver loads the current user record for a token subject.
type UserResolver interface {
	GetByStableID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Gate authenticates bearer tokens once per request. It never rejects a
// request itself: failures are recorded in the context and rendered by
// RequireAuthenticated on protected routes.
type Gate struct {
	verifier TokenVerifier
	users    UserResolver
	public   []string
	log      *zap.Logger
}

// NewGate constructs a gate that skips paths starting with any of publicPrefixes.
func NewGate(v TokenVerifier, users UserResolver, publicPrefixes []string, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{verifier: v, users: users, public: publicPrefixes, log: log}
}

// Middleware returns the gate as an http middleware.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		raw, present := bearerToken(r.Header.Get("Authorization"))
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		p, err := g.authenticate(r.Context(), raw)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		case errors.Is(err, errs.ErrTokenInvalid):
			g.log.Debug("bearer rejected", zap.String("path", r.URL.Path), zap.Error(err))
			next.ServeHTTP(w, r.WithContext(withAuthFailure(r.Context(), err)))
		default:
			renderError(w, g.log, err)
		}
	})
}

func (g *Gate) authenticate(ctx context.Context, raw string) (model.Principal, error) {
	if raw == "" {
		return model.Principal{}, fmt.Errorf("%w: empty bearer", errs.ErrTokenInvalid)
	}
	claims, err := g.verifier.Verify(raw)
	if err != nil {
		return model.Principal{}, err
	}
	sid, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: subject is not a uuid", errs.ErrTokenInvalid)
	}
	u, err := g.users.GetByStableID(ctx, sid)
	if errors.Is(err, errs.ErrUserNotFound) {
		return model.Principal{}, fmt.Errorf("%w: %w", errs.ErrTokenInvalid, err)
	}
	if err != nil {
		return model.Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	return model.PrincipalOf(*u), nil
}

func (g *Gate) isPublic(path string) bool {
	for _, p := range g.public {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// bearerToken extracts the credential from an Authorization header.
// present is false when the header does not use the Bearer scheme.
func bearerToken(h string) (tok string, present bool) {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
