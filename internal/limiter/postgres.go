package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config sets the failure window, threshold and lockout length.
type Config struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

var _ Limiter = (*PG)(nil)

// PG keeps attempt counters in the login_attempts table.
type PG struct {
	q   Querier
	cfg Config
	now func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, cfg Config) *PG {
	if cfg.MaxFails <= 0 {
		cfg.MaxFails = 5
	}
	return &PG{q: q, cfg: cfg, now: time.Now}
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, username string, client []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE username=$1 AND client_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, username, client).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if now := l.now(); blockedUntil.After(now) {
		return false, blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success drops the counters for (username, client).
func (l *PG) Success(ctx context.Context, username string, client []byte) error {
	const q = `DELETE FROM login_attempts WHERE username=$1 AND client_hash=$2`
	_, err := l.q.Exec(ctx, q, username, client)
	return err
}

// Failure bumps the counter, restarting it when the previous failure fell outside the window.
func (l *PG) Failure(ctx context.Context, username string, client []byte) (bool, time.Duration, error) {
	now := l.now()
	const q = `
INSERT INTO login_attempts (username, client_hash, fail_count, last_failure)
VALUES ($1, $2, 1, $3)
ON CONFLICT (username, client_hash) DO UPDATE
SET fail_count = CASE
        WHEN login_attempts.last_failure < $4 THEN 1
        ELSE login_attempts.fail_count + 1
    END,
    last_failure = EXCLUDED.last_failure
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, username, client, now, now.Add(-l.cfg.Window)).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}

	const upd = `UPDATE login_attempts SET blocked_until=$3, fail_count=0 WHERE username=$1 AND client_hash=$2`
	if _, err := l.q.Exec(ctx, upd, username, client, now.Add(l.cfg.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}

// Prune deletes counters that neither block a client nor fall inside the failure window.
func (l *PG) Prune(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM login_attempts WHERE blocked_until < $1 AND last_failure < $2`
	tag, err := l.q.Exec(ctx, q, now, now.Add(-l.cfg.Window))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
