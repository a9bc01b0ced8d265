// Package token signs and verifies access tokens (HS256 JWS).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/podsub/internal/errs"
)

// Claims carried by an access token. Username is informational only;
// authorization decisions use Subject.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Codec signs and verifies tokens with a single symmetric key.
// It is safe for concurrent use: the key is read-only after construction.
type Codec struct {
	key []byte
	now func() time.Time
}

// Option customizes a Codec or an AccessIssuer.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewCodec derives the HMAC key from the UTF-8 bytes of secret.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}
	o := buildOptions(opts)
	return &Codec{key: []byte(secret), now: o.now}, nil
}

// Sign serializes claims into a compact HS256 token. Subject and expiry are
// mandatory; a missing issued-at is set to the current time.
func (c *Codec) Sign(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sign: empty subject")
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("sign: missing expiry")
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(c.now())
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Verify parses tok and checks structure, signature and expiry. Every failure
// is reported as errs.ErrTokenInvalid.
func (c *Codec) Verify(tok string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrTokenInvalid, reason(err))
	}
	if !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: incomplete claims", errs.ErrTokenInvalid)
	}
	return &claims, nil
}

// reason maps jwt errors to a short, non-sensitive description.
func reason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature mismatch"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return "rejected"
	}
}
