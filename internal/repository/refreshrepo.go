package repository

import (
	"context"
	"time"

	"github.com/and161185/podsub/internal/model"
)

// MatchFunc selects a refresh-token record during a scoped scan.
type MatchFunc func(rt model.RefreshToken) bool

// RefreshTokenRepository persists hashed refresh tokens.
type RefreshTokenRepository interface {
	// Create inserts a record and fills its ID and CreatedAt.
	Create(ctx context.Context, rt *model.RefreshToken) error
	// RotateMatching locks the records owned by userID, and sets expiresAt of the
	// first one accepted by match to newExpiry, all in one transaction.
	// It returns errs.ErrNotFound when nothing matches.
	RotateMatching(ctx context.Context, userID int64, match MatchFunc, newExpiry time.Time) (model.RefreshToken, error)
	// DeleteMatching removes the first record owned by userID accepted by match.
	DeleteMatching(ctx context.Context, userID int64, match MatchFunc) (bool, error)
	// DeleteExpired removes every record with expires_at strictly before t.
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}
