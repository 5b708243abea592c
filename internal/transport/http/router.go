// Package httptransport is the thin HTTP layer in front of the gateway
// services. Handlers delegate to the domain services so transport concerns
// stay isolated from the security core.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkgate/internal/platform/middleware"
	"linkgate/internal/platform/requesttime"
)

// NewRouter wires all endpoints with the shared middleware stack.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Deep-link transport: the OS URL-open event enters here.
		r.Post("/deeplink/open", h.handleDeepLinkOpen)

		// Credential flows, gated by the rate limiter.
		r.Post("/auth/signin", h.handleSignIn)
		r.Post("/auth/signup", h.handleSignUp)
		r.Post("/auth/recover", h.handleRecover)
	})

	return r
}
