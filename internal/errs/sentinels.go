// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound indicates that a username or stable id resolves to no user.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized indicates failed authentication (bad credentials).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated principal lacking a required role.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidFeedURL indicates a feed URL that cannot be canonicalized.
	ErrInvalidFeedURL = errors.New("invalid feed url")

	// ErrTokenInvalid indicates a malformed, forged or expired access token.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrInvalidRefreshToken is the single error for any refresh-token mismatch or expiry.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrValidation indicates malformed request input.
	ErrValidation = errors.New("validation")
)
