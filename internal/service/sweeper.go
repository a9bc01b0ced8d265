package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/repository"
)

// DefaultSweepInterval fires at the top of every hour.
const DefaultSweepInterval = time.Hour

// AttemptPruner drops login-attempt counters that no longer block anyone.
type AttemptPruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper deletes expired refresh tokens on a fixed schedule.
type Sweeper struct {
	tokens   repository.RefreshTokenRepository
	attempts AttemptPruner
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewSweeper constructs a sweeper whose runs align to multiples of interval.
func NewSweeper(tokens repository.RefreshTokenRepository, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{tokens: tokens, interval: interval, log: log, now: time.Now}
}

// WithAttempts makes every run also prune stale login-attempt counters.
func (s *Sweeper) WithAttempts(p AttemptPruner) *Sweeper {
	s.attempts = p
	return s
}

// SweepOnce removes every record that expired before now and returns how many
// refresh tokens went away.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	s.log.Info("expired refresh tokens swept", zap.Int64("deleted", n))

	if s.attempts != nil {
		pruned, err := s.attempts.Prune(ctx, now)
		if err != nil {
			return n, fmt.Errorf("prune login attempts: %w", err)
		}
		s.log.Info("stale login attempts pruned", zap.Int64("deleted", pruned))
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done. Failures and panics are logged
// and the next tick tries again.
func (s *Sweeper) Run(ctx context.Context) {
	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.untilNext())
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("sweep panicked",
				zap.Any("reason", rec),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("sweep expired refresh tokens", zap.Error(err))
	}
}

func (s *Sweeper) untilNext() time.Duration {
	return nextRun(s.now(), s.interval).Sub(s.now())
}

// nextRun returns the first multiple of interval strictly after now.
func nextRun(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}
