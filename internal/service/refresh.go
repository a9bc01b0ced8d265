package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgcrypto "github.com/and161185/podsub/internal/crypto"
	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
)

// RefreshTokenManager issues opaque refresh tokens and exchanges them.
// Only a salted hash of each token is stored.
type RefreshTokenManager struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	hasher pkgcrypto.TokenHasher
	ttl    time.Duration
	now    func() time.Time
}

// NewRefreshTokenManager constructs a manager issuing tokens valid for ttl.
func NewRefreshTokenManager(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	hasher pkgcrypto.TokenHasher,
	ttl time.Duration,
) *RefreshTokenManager {
	return &RefreshTokenManager{users: users, tokens: tokens, hasher: hasher, ttl: ttl, now: time.Now}
}

// TTL returns the refresh-token lifetime.
func (m *RefreshTokenManager) TTL() time.Duration { return m.ttl }

// Issue persists a new token for u and returns the raw value. It is never stored.
func (m *RefreshTokenManager) Issue(ctx context.Context, u model.User) (string, error) {
	raw, err := pkgcrypto.NewRefreshSecret()
	if err != nil {
		return "", fmt.Errorf("refresh secret: %w", err)
	}
	hash, err := m.hasher.Hash(raw)
	if err != nil {
		return "", fmt.Errorf("hash refresh token: %w", err)
	}
	rec := &model.RefreshToken{
		TokenHash: hash,
		UserID:    u.ID,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.tokens.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// ValidateAndRotate checks raw against the records owned by username and, on a
// live match, pushes that record's expiry to now+ttl. Every rejection reason
// collapses into ErrInvalidRefreshToken.
func (m *RefreshTokenManager) ValidateAndRotate(ctx context.Context, username, raw string) (*model.User, error) {
	if username == "" || raw == "" {
		return nil, errs.ErrInvalidRefreshToken
	}
	u, err := m.users.GetByUsername(ctx, username)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	now := m.now()
	_, err = m.tokens.RotateMatching(ctx, u.ID, m.matcher(raw, now), now.Add(m.ttl))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Revoke deletes the record raw belongs to. Unknown owners and tokens are not an error.
func (m *RefreshTokenManager) Revoke(ctx context.Context, username, raw string) (bool, error) {
	if username == "" || raw == "" {
		return false, nil
	}
	u, err := m.users.GetByUsername(ctx, username)
	if errors.Is(err, errs.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.tokens.DeleteMatching(ctx, u.ID, func(rt model.RefreshToken) bool {
		return m.hasher.Matches(raw, rt.TokenHash)
	})
}

func (m *RefreshTokenManager) matcher(raw string, now time.Time) repository.MatchFunc {
	return func(rt model.RefreshToken) bool {
		// expiry first: bcrypt is the expensive half
		return rt.ExpiresAt.After(now) && m.hasher.Matches(raw, rt.TokenHash)
	}
}
