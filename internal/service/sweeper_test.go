package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/podsub/internal/model"
)

func TestSweeper_SweepOnce_DeletesStrictlyExpired(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := &fakeTokens{rows: []model.RefreshToken{
		{ID: 1, ExpiresAt: now.Add(-time.Minute)},
		{ID: 2, ExpiresAt: now},
		{ID: 3, ExpiresAt: now.Add(time.Minute)},
		{ID: 4, ExpiresAt: now.Add(-time.Hour)},
	}}
	s := NewSweeper(tokens, time.Hour, zaptest.NewLogger(t))
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, now, tokens.lastCutoff)

	left := tokens.snapshot()
	require.Len(t, left, 2)
	require.Equal(t, int64(2), left[0].ID)
	require.Equal(t, int64(3), left[1].ID)

	n, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, n, "a second run finds nothing")
}

func TestSweeper_SweepOnce_Error(t *testing.T) {
	t.Parallel()
	tokens := &fakeTokens{err: errors.New("db down")}
	s := NewSweeper(tokens, time.Hour, zaptest.NewLogger(t))

	_, err := s.SweepOnce(context.Background())
	require.Error(t, err)
}

func TestSweeper_Run_TicksAndSurvivesFailures(t *testing.T) {
	t.Parallel()
	tokens := &fakeTokens{err: errors.New("db down")}
	s := NewSweeper(tokens, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return tokens.calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

type panickyTokens struct {
	*fakeTokens
	mu sync.Mutex
	n  int
}

func (p *panickyTokens) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	panic("driver exploded")
}

func (p *panickyTokens) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func TestSweeper_Run_SurvivesPanics(t *testing.T) {
	t.Parallel()
	tokens := &panickyTokens{fakeTokens: &fakeTokens{}}
	s := NewSweeper(tokens, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return tokens.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (p *fakePruner) Prune(_ context.Context, now time.Time) (int64, error) {
	p.cutoff = now
	return p.n, p.err
}

func TestSweeper_SweepOnce_PrunesAttempts(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := &fakeTokens{rows: []model.RefreshToken{{ID: 1, ExpiresAt: now.Add(-time.Minute)}}}
	pruner := &fakePruner{n: 4}
	s := NewSweeper(tokens, time.Hour, zaptest.NewLogger(t)).WithAttempts(pruner)
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, now, pruner.cutoff)

	pruner.err = errors.New("db down")
	_, err = s.SweepOnce(context.Background())
	require.ErrorContains(t, err, "prune login attempts")
}

func TestNextRun(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		now      time.Time
		interval time.Duration
		want     time.Time
	}{
		{base.Add(17 * time.Minute), time.Hour, base.Add(time.Hour)},
		{base, time.Hour, base.Add(time.Hour)},
		{base.Add(59*time.Minute + 59*time.Second), time.Hour, base.Add(time.Hour)},
		{base.Add(7 * time.Minute), 15 * time.Minute, base.Add(15 * time.Minute)},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, nextRun(tc.now, tc.interval), tc.now.String())
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	t.Parallel()
	s := NewSweeper(&fakeTokens{}, 0, nil)
	require.Equal(t, DefaultSweepInterval, s.interval)
}
