package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
)

// SubscriptionRepo implements SubscriptionRepository using PostgreSQL.
type SubscriptionRepo struct{ db *DB }

// NewSubscriptionRepo constructs a subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Create inserts a subscription row.
func (r *SubscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (user_id, feed_uuid, feed_url)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, s.UserID, s.FeedUUID, s.FeedURL).Scan(&s.ID, &s.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// List returns a page of subscriptions ordered by creation.
func (r *SubscriptionRepo) List(ctx context.Context, userID int64, limit, offset int) ([]model.Subscription, error) {
	const q = `
SELECT id, user_id, feed_uuid, feed_url, created_at
FROM subscriptions
WHERE user_id=$1
ORDER BY created_at, id
LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err = rows.Scan(&s.ID, &s.UserID, &s.FeedUUID, &s.FeedURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the user's subscription to a feed.
func (r *SubscriptionRepo) Delete(ctx context.Context, userID int64, feedUUID uuid.UUID) error {
	const q = `DELETE FROM subscriptions WHERE user_id=$1 AND feed_uuid=$2`
	tag, err := r.db.Pool.Exec(ctx, q, userID, feedUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
