package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
)

// RefreshTokenRepo implements RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepo struct{ db *DB }

// NewRefreshTokenRepo constructs a refresh-token repository.
func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// Create inserts a hashed refresh token.
func (r *RefreshTokenRepo) Create(ctx context.Context, rt *model.RefreshToken) error {
	const q = `
INSERT INTO refresh_tokens (token_hash, user_id, expires_at)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, rt.TokenHash, rt.UserID, rt.ExpiresAt).Scan(&rt.ID, &rt.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// RotateMatching extends the expiry of the first owned record accepted by match.
// The owner's rows stay locked until commit, so concurrent rotations serialize.
func (r *RefreshTokenRepo) RotateMatching(
	ctx context.Context, userID int64, match repository.MatchFunc, newExpiry time.Time,
) (out model.RefreshToken, err error) {
	const upd = `UPDATE refresh_tokens SET expires_at=$2 WHERE id=$1`

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		rec, found, err := firstMatch(ctx, tx, userID, match)
		if err != nil {
			return err
		}
		if !found {
			return errs.ErrNotFound
		}
		if _, err := tx.Exec(ctx, upd, rec.ID, newExpiry); err != nil {
			return err
		}
		rec.ExpiresAt = newExpiry
		out = rec
		return nil
	})
	return out, err
}

// DeleteMatching removes the first owned record accepted by match.
func (r *RefreshTokenRepo) DeleteMatching(ctx context.Context, userID int64, match repository.MatchFunc) (deleted bool, err error) {
	const del = `DELETE FROM refresh_tokens WHERE id=$1`

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		rec, found, err := firstMatch(ctx, tx, userID, match)
		if err != nil || !found {
			return err
		}
		if _, err := tx.Exec(ctx, del, rec.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// DeleteExpired removes all records that expired strictly before t in one statement.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	tag, err := r.db.Pool.Exec(ctx, q, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// firstMatch loads and locks only the rows of one owner, then applies match in id order.
func firstMatch(ctx context.Context, tx pgx.Tx, userID int64, match repository.MatchFunc) (model.RefreshToken, bool, error) {
	const sel = `
SELECT id, token_hash, user_id, expires_at, created_at
FROM refresh_tokens
WHERE user_id=$1
ORDER BY id
FOR UPDATE`
	rows, err := tx.Query(ctx, sel, userID)
	if err != nil {
		return model.RefreshToken{}, false, err
	}
	defer rows.Close()

	var candidates []model.RefreshToken
	for rows.Next() {
		var rt model.RefreshToken
		if err := rows.Scan(&rt.ID, &rt.TokenHash, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt); err != nil {
			return model.RefreshToken{}, false, err
		}
		candidates = append(candidates, rt)
	}
	if err := rows.Err(); err != nil {
		return model.RefreshToken{}, false, err
	}
	rows.Close()

	for _, rt := range candidates {
		if match(rt) {
			return rt, true, nil
		}
	}
	return model.RefreshToken{}, false, nil
}
