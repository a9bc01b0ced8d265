package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/model"
)

// SubscriptionRepository stores per-user feed subscriptions.
type SubscriptionRepository interface {
	// Create inserts a subscription; errs.ErrAlreadyExists on duplicates.
	Create(ctx context.Context, s *model.Subscription) error
	// List returns a page of the user's subscriptions, oldest first.
	List(ctx context.Context, userID int64, limit, offset int) ([]model.Subscription, error)
	// Delete removes a subscription; errs.ErrNotFound when absent.
	Delete(ctx context.Context, userID int64, feedUUID uuid.UUID) error
}
