package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/feedid"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SubscribeResult is the stored subscription plus whether a client-supplied
// feed UUID disagreed with the derived one.
type SubscribeResult struct {
	Subscription model.Subscription
	UUIDMismatch bool
}

// SubscriptionService manages per-user feed subscriptions.
type SubscriptionService struct {
	repo repository.SubscriptionRepository
	log  *zap.Logger
}

// NewSubscriptionService constructs SubscriptionService.
func NewSubscriptionService(repo repository.SubscriptionRepository, log *zap.Logger) *SubscriptionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionService{repo: repo, log: log}
}

// Subscribe stores a subscription keyed by the derived feed UUID. A claimed
// UUID that does not match is reported, not rejected.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, rawURL string, claimed *uuid.UUID) (SubscribeResult, error) {
	canonical, err := feedid.Canonicalize(rawURL)
	if err != nil {
		return SubscribeResult{}, err
	}
	id, err := feedid.DeriveUUID(canonical)
	if err != nil {
		return SubscribeResult{}, err
	}

	var res SubscribeResult
	if claimed != nil && *claimed != id {
		res.UUIDMismatch = true
		s.log.Warn("client feed uuid mismatch",
			zap.Int64("user_id", userID),
			zap.String("canonical", canonical),
			zap.String("claimed", claimed.String()),
			zap.String("derived", id.String()))
	}

	sub := model.Subscription{UserID: userID, FeedUUID: id, FeedURL: canonical}
	if err := s.repo.Create(ctx, &sub); err != nil {
		return SubscribeResult{}, err
	}
	res.Subscription = sub
	return res, nil
}

// List returns a page of the user's subscriptions.
// limit<=0 selects the default page size; limit is capped.
func (s *SubscriptionService) List(ctx context.Context, userID int64, limit, offset int) ([]model.Subscription, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", errs.ErrValidation)
	}
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return s.repo.List(ctx, userID, limit, offset)
}

// Unsubscribe removes the subscription to feedUUID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID int64, feedUUID uuid.UUID) error {
	if feedUUID == uuid.Nil {
		return fmt.Errorf("%w: empty feed uuid", errs.ErrValidation)
	}
	return s.repo.Delete(ctx, userID, feedUUID)
}
