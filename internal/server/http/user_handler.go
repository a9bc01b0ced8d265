package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/model"
)

type rolesRequest struct {
	Roles []string `json:"roles"`
}

// Me returns the caller's principal.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromCtx(r.Context())
	writeJSON(w, http.StatusOK, p)
}

// GetUser returns a user by stable id.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := stableIDParam(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PrincipalOf(*u))
}

// SetRoles replaces a user's roles.
func (h *Handlers) SetRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := stableIDParam(w, r)
	if !ok {
		return
	}
	var req rolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	roles, err := h.users.SetRoles(r.Context(), id, req.Roles)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rolesRequest{Roles: roles})
}

// Health reports liveness and storage reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Warn("health: storage unreachable", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func stableIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "stableId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "stableId is malformed")
		return uuid.Nil, false
	}
	return id, true
}
