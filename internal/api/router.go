// Package api is the HTTP surface: the JSON API under /api/v1, the public
// short-link redirects, health and metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/redirect"
	"github.com/shortmark/shortmark/internal/store"
)

// Deps holds all dependencies required to build the router.
type Deps struct {
	Auth       *auth.Service
	Bookmarks  *store.BookmarkStore
	Resolver   *redirect.Resolver
	DB         Pinger
	Log        logger.Logger
	RateLimit  RateLimitConfig
	// TrustProxy enables middleware.RealIP. Without it the rate limiter keys
	// on the TCP peer address and forwarded headers are ignored.
	TrustProxy bool
}

// NewRouter builds the full HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLog(d.Log))
	r.Use(middleware.Recoverer)

	bearer := auth.NewBearerMiddleware(d.Auth, writeUnauthorized)
	limiter := NewIPRateLimiter(d.RateLimit)
	redirects := &redirectHandler{resolver: d.Resolver, log: d.Log}
	health := &healthHandler{db: d.DB, log: d.Log}

	r.Get("/healthz", health.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/{short_code}", redirects.Redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Route("/auth", func(r chi.Router) {
			registerAuthRoutes(r, &authAPIHandler{svc: d.Auth, log: d.Log},
				limiter.Middleware, bearer.Require(auth.KindAccess))
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(bearer.Require(auth.KindAccess))
			registerBookmarkRoutes(r, &bookmarksAPIHandler{bookmarks: d.Bookmarks, resolver: d.Resolver, log: d.Log})
		})

		// Legacy redirect path kept for old links.
		r.Get("/{short_code}", redirects.Redirect)
	})

	return r
}

// jsonContentType sets Content-Type: application/json on all API responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
