package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/feedid"
	"github.com/and161185/podsub/internal/model"
)

type subscribeRequest struct {
	URL  string `json:"url"`
	UUID string `json:"uuid,omitempty"`
}

type subscriptionView struct {
	UUID      string    `json:"uuid"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type subscribeResponse struct {
	subscriptionView
	UUIDMismatch bool `json:"uuidMismatch"`
}

type feedUUIDResponse struct {
	URL       string `json:"url"`
	Canonical string `json:"canonical"`
	UUID      string `json:"uuid"`
}

func viewOf(s model.Subscription) subscriptionView {
	return subscriptionView{UUID: s.FeedUUID.String(), URL: s.FeedURL, CreatedAt: s.CreatedAt}
}

// Subscribe adds a feed to the caller's subscriptions.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromCtx(r.Context())
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var claimed *uuid.UUID
	if req.UUID != "" {
		id, err := uuid.FromString(req.UUID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "uuid is malformed")
			return
		}
		claimed = &id
	}

	res, err := h.subs.Subscribe(r.Context(), p.ID, req.URL, claimed)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, subscribeResponse{
		subscriptionView: viewOf(res.Subscription),
		UUIDMismatch:     res.UUIDMismatch,
	})
}

// ListSubscriptions returns a page of the caller's subscriptions.
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromCtx(r.Context())
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := intQuery(w, r, "offset")
	if !ok {
		return
	}

	subs, err := h.subs.List(r.Context(), p.ID, limit, offset)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	out := make([]subscriptionView, 0, len(subs))
	for _, s := range subs {
		out = append(out, viewOf(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// Unsubscribe removes a subscription by feed UUID.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromCtx(r.Context())
	id, err := uuid.FromString(chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "uuid is malformed")
		return
	}
	if err := h.subs.Unsubscribe(r.Context(), p.ID, id); err != nil {
		renderError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FeedUUID derives the feed UUID for ?url= without storing anything.
func (h *Handlers) FeedUUID(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	canonical, err := feedid.Canonicalize(raw)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	id, err := feedid.DeriveUUID(canonical)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, feedUUIDResponse{URL: raw, Canonical: canonical, UUID: id.String()})
}

func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", name+" must be an integer")
		return 0, false
	}
	return n, true
}
