package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/model"
	_ "github.com/and161185/podsub/internal/server/docs"
)

// NewRouter builds the API routes. The gate runs on every request; protected
// groups decide what a missing principal means.
func NewRouter(h *Handlers, gate *Gate, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(log))
	r.Use(Logging(log))
	r.Use(gate.Middleware)

	r.Get("/healthz", h.Health)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
		})

		r.Get("/feeds/uuid", h.FeedUUID)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuthenticated)

			r.Get("/users/me", h.Me)
			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/", h.Subscribe)
				r.Get("/", h.ListSubscriptions)
				r.Delete("/{uuid}", h.Unsubscribe)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(model.RoleAdmin))

			r.Get("/users/{stableId}", h.GetUser)
			r.Put("/admin/users/{stableId}/roles", h.SetRoles)
		})
	})

	return r
}
