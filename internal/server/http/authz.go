package httpserver

import (
	"net/http"

	"github.com/and161185/podsub/internal/model"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Granted Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Authorize decides whether p may act with role. An empty role only requires authentication.
func Authorize(p *model.Principal, role string) Decision {
	if p == nil {
		return Unauthenticated
	}
	if role != "" && !p.HasRole(role) {
		return Forbidden
	}
	return Granted
}

// RequireAuthenticated renders 401 unless the gate attached a principal.
func RequireAuthenticated(next http.Handler) http.Handler {
	return RequireRole("")(next)
}

// RequireRole renders 401 without a principal and 403 when the principal lacks role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pp *model.Principal
			if p, ok := PrincipalFromCtx(r.Context()); ok {
				pp = &p
			}
			switch Authorize(pp, role) {
			case Granted:
				next.ServeHTTP(w, r)
			case Unauthenticated:
				msg := "authentication required"
				if AuthFailureFromCtx(r.Context()) != nil {
					msg = "invalid or expired token"
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", msg)
			default:
				writeError(w, http.StatusForbidden, "forbidden", "missing role "+role)
			}
		})
	}
}
