package token

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/podsub/internal/model"
)

// AccessIssuer builds short-lived access tokens. It never touches storage.
type AccessIssuer struct {
	codec *Codec
	ttl   time.Duration
	now   func() time.Time
}

// NewAccessIssuer constructs an issuer producing tokens valid for ttl.
func NewAccessIssuer(codec *Codec, ttl time.Duration, opts ...Option) *AccessIssuer {
	o := buildOptions(opts)
	return &AccessIssuer{codec: codec, ttl: ttl, now: o.now}
}

// TTL returns the configured access-token lifetime.
func (i *AccessIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for u with subject = stable id.
func (i *AccessIssuer) Issue(u model.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := i.codec.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.StableID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti.String(),
		},
		Username: u.Username,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
