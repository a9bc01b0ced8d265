// Package limiter throttles repeated failed logins per username and client.
package limiter

import (
	"context"
	"crypto/sha256"
	"net"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may proceed and, if not, for how long it stays blocked.
	Allow(ctx context.Context, username string, client []byte) (bool, time.Duration, error)
	// Success clears the failure history.
	Success(ctx context.Context, username string, client []byte) error
	// Failure records a failed attempt and reports whether it triggered a block.
	Failure(ctx context.Context, username string, client []byte) (bool, time.Duration, error)
}

// HashClient hashes the host part of a remote address so raw addresses are never stored.
func HashClient(remoteAddr string) []byte {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	sum := sha256.Sum256([]byte(host))
	return sum[:]
}

// Nop never blocks.
type Nop struct{}

func (Nop) Allow(context.Context, string, []byte) (bool, time.Duration, error) { return true, 0, nil }
func (Nop) Success(context.Context, string, []byte) error                     { return nil }
func (Nop) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}
