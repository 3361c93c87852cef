package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shortmark/shortmark/internal/build"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/redirect"
)

// redirectHandler serves the public short links.
type redirectHandler struct {
	resolver *redirect.Resolver
	log      logger.Logger
}

// Redirect sends the client to the bookmark's URL and counts the visit.
// GET /{short_code} and GET /api/v1/{short_code}
func (h *redirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.resolver.Resolve(r.Context(), chi.URLParam(r, "short_code"))
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Pinger reports whether the database is reachable. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// healthHandler answers liveness probes.
type healthHandler struct {
	db  Pinger
	log logger.Logger
}

// Health returns 200 when the database answers a ping within two seconds.
// GET /healthz
func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("health check failed", logger.Err(err))
		writeError(w, r, http.StatusServiceUnavailable, "Service Unavailable", "The database is not reachable.")
		return
	}
	writeJSON(w, http.StatusOK, Envelope[HealthResponse]{Data: HealthResponse{Status: "ok", Version: build.Version}})
}
