package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type registerResponse struct {
	StableID string `json:"stableId"`
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{StableID: id.String()})
}

// Login exchanges credentials for an access/refresh token pair.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username and password are required")
		return
	}
	tok, _, err := h.auth.Login(r.Context(), req.Username, req.Password, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "bad credentials")
			return
		}
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    seconds(tok),
	})
}

// Refresh issues a new access token for a valid refresh token.
// Rejections are plain text 400 responses.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := h.auth.Refresh(r.Context(), req.Username, req.RefreshToken)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidRefreshToken) {
			http.Error(w, "Invalid or expired refresh token", http.StatusBadRequest)
			return
		}
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: tok.AccessToken, ExpiresIn: seconds(tok)})
}

// Logout revokes a refresh token. It succeeds whether or not the token existed.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.Logout(r.Context(), req.Username, req.RefreshToken); err != nil {
		renderError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seconds renders the access-token lifetime the way clients expect it: a decimal string.
func seconds(tok model.Tokens) string {
	return strconv.FormatInt(int64(tok.ExpiresIn/time.Second), 10)
}
