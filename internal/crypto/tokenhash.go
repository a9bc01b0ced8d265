package crypto

import (
	"encoding/hex"
	"errors"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"
)

// NewRefreshSecret returns an opaque refresh-token value built from two random
// 128-bit values (64 hex characters, within the bcrypt input limit).
func NewRefreshSecret() (string, error) {
	a, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	b, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(a.Bytes()) + hex.EncodeToString(b.Bytes()), nil
}

// TokenHasher hashes refresh-token secrets with bcrypt (salted, one-way).
type TokenHasher struct {
	cost int
}

// NewTokenHasher returns a hasher with the given bcrypt cost; out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewTokenHasher(cost int) TokenHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return TokenHasher{cost: cost}
}

// Hash returns the salted hash of raw in its encoded bcrypt form.
func (h TokenHasher) Hash(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty token")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether raw hashes to encoded.
func (h TokenHasher) Matches(raw, encoded string) bool {
	if raw == "" || encoded == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}
