package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/limiter"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*model.User
	nextID int64

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	if _, exists := f.byName[u.Username]; exists {
		return errs.ErrAlreadyExists
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cpy := *u
	f.byName[u.Username] = &cpy
	return nil
}

func (f *fakeUsers) GetByStableID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byName {
		if u.StableID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) SetRoles(_ context.Context, id uuid.UUID, roles []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.StableID == id {
			u.Roles = append([]string(nil), roles...)
			return nil
		}
	}
	return errs.ErrUserNotFound
}

// fakeTokens serializes every operation, like row locks do for a single owner.
type fakeTokens struct {
	mu     sync.Mutex
	rows   []model.RefreshToken
	nextID int64

	err error

	deleteExpiredCalls int
	lastCutoff         time.Time
}

var _ repository.RefreshTokenRepository = (*fakeTokens)(nil)

func (f *fakeTokens) Create(_ context.Context, rt *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	rt.ID = f.nextID
	rt.CreatedAt = time.Now()
	f.rows = append(f.rows, *rt)
	return nil
}

func (f *fakeTokens) RotateMatching(_ context.Context, userID int64, match repository.MatchFunc, newExpiry time.Time) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.RefreshToken{}, f.err
	}
	for i := range f.rows {
		if f.rows[i].UserID == userID && match(f.rows[i]) {
			f.rows[i].ExpiresAt = newExpiry
			return f.rows[i], nil
		}
	}
	return model.RefreshToken{}, errs.ErrNotFound
}

func (f *fakeTokens) DeleteMatching(_ context.Context, userID int64, match repository.MatchFunc) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i := range f.rows {
		if f.rows[i].UserID == userID && match(f.rows[i]) {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokens) DeleteExpired(_ context.Context, t time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteExpiredCalls++
	f.lastCutoff = t
	if f.err != nil {
		return 0, f.err
	}
	kept := f.rows[:0]
	var n int64
	for _, rt := range f.rows {
		if rt.ExpiresAt.Before(t) {
			n++
			continue
		}
		kept = append(kept, rt)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeTokens) snapshot() []model.RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RefreshToken(nil), f.rows...)
}

func (f *fakeTokens) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteExpiredCalls
}

type fakeSubs struct {
	rows []model.Subscription
	err  error

	lastLimit, lastOffset int
}

var _ repository.SubscriptionRepository = (*fakeSubs)(nil)

func (f *fakeSubs) Create(_ context.Context, s *model.Subscription) error {
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rows {
		if r.UserID == s.UserID && r.FeedUUID == s.FeedUUID {
			return errs.ErrAlreadyExists
		}
	}
	s.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSubs) List(_ context.Context, userID int64, limit, offset int) ([]model.Subscription, error) {
	f.lastLimit, f.lastOffset = limit, offset
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Subscription{}
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return []model.Subscription{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSubs) Delete(_ context.Context, userID int64, feedUUID uuid.UUID) error {
	for i, r := range f.rows {
		if r.UserID == userID && r.FeedUUID == feedUUID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}
