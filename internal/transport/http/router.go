// Package httptransport assembles the HTTP surface of the registry. Route
// ownership stays with the module handlers; this package only mounts them and
// applies the shared middleware stack.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"specregistry/internal/platform/middleware"
)

// RouteRegistrar is implemented by every module handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware stack, operational endpoints, and the /api
// namespace. Authentication runs for every API request but only resolves the
// caller; per-route guards decide what anonymity may do.
func NewRouter(logger *slog.Logger, verifier middleware.TokenVerifier, handlers ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestMeta)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger(logger))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Authenticate(verifier, logger))
		for _, h := range handlers {
			h.Register(api)
		}
	})
	return r
}
