package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	pkgcrypto "github.com/and161185/podsub/internal/crypto"
	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
)

const refreshTTL = 7 * 24 * time.Hour

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T) (*RefreshTokenManager, *fakeUsers, *fakeTokens, *clock) {
	t.Helper()
	users := &fakeUsers{}
	tokens := &fakeTokens{}
	clk := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := NewRefreshTokenManager(users, tokens, pkgcrypto.NewTokenHasher(bcrypt.MinCost), refreshTTL)
	m.now = clk.Now
	return m, users, tokens, clk
}

func addUser(t *testing.T, users *fakeUsers, name string) model.User {
	t.Helper()
	u := &model.User{StableID: uuid.Must(uuid.NewV4()), Username: name, Roles: []string{model.RoleUser}}
	require.NoError(t, users.Create(context.Background(), u))
	return *u
}

func TestRefreshTokenManager_Issue_StoresHashOnly(t *testing.T) {
	t.Parallel()
	m, users, tokens, clk := newManager(t)
	u := addUser(t, users, "alice")

	raw, err := m.Issue(context.Background(), u)
	require.NoError(t, err)
	require.Len(t, raw, 64)

	rows := tokens.snapshot()
	require.Len(t, rows, 1)
	require.NotEqual(t, raw, rows[0].TokenHash)
	require.False(t, strings.Contains(rows[0].TokenHash, raw))
	require.Equal(t, u.ID, rows[0].UserID)
	require.Equal(t, clk.Now().Add(refreshTTL), rows[0].ExpiresAt)
}

func TestRefreshTokenManager_Issue_StoreError(t *testing.T) {
	t.Parallel()
	m, users, tokens, _ := newManager(t)
	u := addUser(t, users, "alice")
	tokens.err = errors.New("db down")

	_, err := m.Issue(context.Background(), u)
	require.Error(t, err)
}

func TestRefreshTokenManager_ValidateAndRotate_ExtendsExpiry(t *testing.T) {
	t.Parallel()
	m, users, tokens, clk := newManager(t)
	u := addUser(t, users, "alice")
	raw, err := m.Issue(context.Background(), u)
	require.NoError(t, err)

	clk.Advance(48 * time.Hour)
	got, err := m.ValidateAndRotate(context.Background(), "alice", raw)
	require.NoError(t, err)
	require.Equal(t, u.StableID, got.StableID)

	rows := tokens.snapshot()
	require.Len(t, rows, 1, "rotation updates the same record")
	require.Equal(t, clk.Now().Add(refreshTTL), rows[0].ExpiresAt)

	// still valid with the same raw value
	_, err = m.ValidateAndRotate(context.Background(), "alice", raw)
	require.NoError(t, err)
}

func TestRefreshTokenManager_ValidateAndRotate_Rejects(t *testing.T) {
	t.Parallel()
	m, users, _, clk := newManager(t)
	alice := addUser(t, users, "alice")
	bob := addUser(t, users, "bob")

	aliceRaw, err := m.Issue(context.Background(), alice)
	require.NoError(t, err)
	_, err = m.Issue(context.Background(), bob)
	require.NoError(t, err)

	flipped := aliceRaw[:63] + "0"
	if aliceRaw[63] == '0' {
		flipped = aliceRaw[:63] + "1"
	}

	cases := []struct {
		name     string
		username string
		raw      string
	}{
		{"flipped char", "alice", flipped},
		{"other owner", "bob", aliceRaw},
		{"unknown owner", "mallory", aliceRaw},
		{"empty raw", "alice", ""},
		{"empty owner", "", aliceRaw},
		{"garbage", "alice", "not-a-token"},
	}
	for _, tc := range cases {
		_, err := m.ValidateAndRotate(context.Background(), tc.username, tc.raw)
		require.ErrorIs(t, err, errs.ErrInvalidRefreshToken, tc.name)
	}

	clk.Advance(refreshTTL)
	_, err = m.ValidateAndRotate(context.Background(), "alice", aliceRaw)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken, "expiry equal to now is expired")
}

func TestRefreshTokenManager_ValidateAndRotate_StorageErrorsPropagate(t *testing.T) {
	t.Parallel()
	m, users, tokens, _ := newManager(t)
	u := addUser(t, users, "alice")
	raw, err := m.Issue(context.Background(), u)
	require.NoError(t, err)

	boom := errors.New("conn reset")
	tokens.err = boom
	_, err = m.ValidateAndRotate(context.Background(), "alice", raw)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, errs.ErrInvalidRefreshToken)

	tokens.err = nil
	users.getErr = boom
	_, err = m.ValidateAndRotate(context.Background(), "alice", raw)
	require.ErrorIs(t, err, boom)
}

func TestRefreshTokenManager_ConcurrentRotation(t *testing.T) {
	t.Parallel()
	m, users, tokens, _ := newManager(t)
	u := addUser(t, users, "alice")
	raw, err := m.Issue(context.Background(), u)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ValidateAndRotate(context.Background(), "alice", raw)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	require.Len(t, tokens.snapshot(), 1)
}

func TestRefreshTokenManager_Revoke(t *testing.T) {
	t.Parallel()
	m, users, tokens, _ := newManager(t)
	u := addUser(t, users, "alice")
	raw, err := m.Issue(context.Background(), u)
	require.NoError(t, err)

	ok, err := m.Revoke(context.Background(), "bob", raw)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.Revoke(context.Background(), "alice", raw)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, tokens.snapshot())

	_, err = m.ValidateAndRotate(context.Background(), "alice", raw)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
}
