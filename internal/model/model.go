// Package model defines domain entities used by services and repositories.
package model

import (
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role tags.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account stored on the server. The password is never stored in plaintext.
type User struct {
	ID        int64     // internal PK, sequential
	StableID  uuid.UUID // random, safe to expose and embed in tokens
	Username  string    // unique
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user auth salt
	Roles     []string  // at least one
	CreatedAt time.Time
}

// HasRole reports whether the user carries the role tag.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// RefreshToken is a persisted refresh-token row. Only the hash of the raw value is kept.
type RefreshToken struct {
	ID        int64
	TokenHash string
	UserID    int64 // FK -> users.id
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Tokens collects issued access/refresh tokens (refresh optional).
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time     // access token expiry
	ExpiresIn    time.Duration // configured access TTL
}

// Principal is the identity attached to a request after token verification.
type Principal struct {
	ID       int64     `json:"id"`
	StableID uuid.UUID `json:"stableId"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
}

// PrincipalOf builds the request principal from the current user record.
func PrincipalOf(u User) Principal {
	return Principal{
		ID:       u.ID,
		StableID: u.StableID,
		Username: u.Username,
		Roles:    slices.Clone(u.Roles),
	}
}

// HasRole reports whether the principal carries the role tag.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Subscription links a user to a podcast feed by its derived feed UUID.
type Subscription struct {
	ID        int64
	UserID    int64     // FK -> users.id
	FeedUUID  uuid.UUID // deterministic, see package feedid
	FeedURL   string    // canonical form
	CreatedAt time.Time
}
