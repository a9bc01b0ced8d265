// Package feedid derives deterministic feed identifiers from podcast feed URLs.
//
// The same canonical URL always maps to the same UUID on the client and on the
// server, so subscriptions can be addressed by feed UUID without a lookup.
package feedid

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/errs"
)

// Namespace is the fixed UUIDv5 namespace for feed identifiers.
var Namespace = uuid.Must(uuid.FromString("ead4c236-bf58-58c6-a2c6-a6b28d128cb6"))

const schemeSep = "://"

// Canonicalize strips an http/https scheme and trailing slashes from rawURL.
// It fails with errs.ErrInvalidFeedURL for blank input, for any other scheme,
// and when the remainder does not look like a host name.
func Canonicalize(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", errs.ErrInvalidFeedURL)
	}

	if i := strings.Index(s, schemeSep); i >= 0 {
		scheme := strings.ToLower(s[:i])
		if scheme != "http" && scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", errs.ErrInvalidFeedURL, scheme)
		}
		s = s[i+len(schemeSep):]
	}

	s = strings.TrimRight(s, "/")
	if !strings.Contains(s, ".") {
		return "", fmt.Errorf("%w: no host in %q", errs.ErrInvalidFeedURL, s)
	}
	return s, nil
}

// DeriveUUID returns the UUIDv5 of the canonicalized URL under Namespace.
func DeriveUUID(rawURL string) (uuid.UUID, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewV5(Namespace, canonical), nil
}

// VerifyClientSuppliedUUID recomputes the feed UUID and compares it with claimed.
// A mismatch means client/server derivation drift; callers treat it as advisory.
func VerifyClientSuppliedUUID(rawURL string, claimed uuid.UUID) bool {
	got, err := DeriveUUID(rawURL)
	if err != nil {
		return false
	}
	return got == claimed
}
