package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/metrics"
	"github.com/shortmark/shortmark/internal/redirect"
	"github.com/shortmark/shortmark/internal/store"
)

// bookmarksAPIHandler provides REST handlers for the caller's bookmarks.
// Every route sits behind the access-token middleware.
type bookmarksAPIHandler struct {
	bookmarks *store.BookmarkStore
	resolver  *redirect.Resolver
	log       logger.Logger
}

func registerBookmarkRoutes(r chi.Router, h *bookmarksAPIHandler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// owner returns the authenticated user id. The middleware guarantees it is set.
func (h *bookmarksAPIHandler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
	}
	return id, ok
}

// bookmarkID parses the {id} path parameter. A non-numeric id is reported
// exactly like a missing bookmark.
func bookmarkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusNotFound, "Bookmark Not Found",
			fmt.Sprintf("Unable to find bookmark with id: %s.", raw))
		return 0, false
	}
	return id, true
}

// Create adds a bookmark with a fresh short code.
// POST /api/v1/bookmarks/
func (h *bookmarksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req BookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.bookmarks.Create(r.Context(), owner, req.URL, req.Body)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	metrics.BookmarksCreatedTotal.Inc()
	h.log.Debug("bookmark created",
		logger.Int64("user_id", owner),
		logger.Int64("bookmark_id", b.ID),
		logger.String("short_url", b.ShortURL))
	writeJSON(w, http.StatusCreated, Envelope[BookmarkResponse]{Data: BookmarkResponse{Bookmark: toBookmarkJSON(b)}})
}

// List returns one page of the caller's bookmarks.
// GET /api/v1/bookmarks/?page=&per_page=
func (h *bookmarksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, perPage := parsePagination(r)

	p, err := h.bookmarks.List(r.Context(), owner, page, perPage)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}

	resp := BookmarkListResponse{Bookmarks: make([]BookmarkJSON, 0, len(p.Items))}
	for _, b := range p.Items {
		resp.Bookmarks = append(resp.Bookmarks, toBookmarkJSON(b))
	}
	writeJSON(w, http.StatusOK, Envelope[BookmarkListResponse]{Data: resp, Meta: toPageMetaJSON(p.Meta)})
}

// Get returns a single bookmark.
// GET /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	b, err := h.bookmarks.Get(r.Context(), owner, id)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope[BookmarkResponse]{Data: BookmarkResponse{Bookmark: toBookmarkJSON(b)}})
}

// Update replaces url and body. PUT and PATCH behave the same.
// PUT|PATCH /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}
	var req BookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.bookmarks.Update(r.Context(), owner, id, req.URL, req.Body)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	h.resolver.Forget(r.Context(), b.ShortURL)
	writeJSON(w, http.StatusOK, Envelope[BookmarkResponse]{Data: BookmarkResponse{Bookmark: toBookmarkJSON(b)}})
}

// Delete removes a bookmark.
// DELETE /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	b, err := h.bookmarks.Delete(r.Context(), owner, id)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	h.resolver.Forget(r.Context(), b.ShortURL)
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns visit counts for all of the caller's bookmarks.
// GET /api/v1/bookmarks/stats
func (h *bookmarksAPIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	stats, err := h.bookmarks.Stats(r.Context(), owner)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}

	data := make([]StatJSON, 0, len(stats))
	for _, s := range stats {
		data = append(data, StatJSON{ID: s.ID, URL: s.URL, ShortURL: s.ShortURL, Visits: s.Visits})
	}
	writeJSON(w, http.StatusOK, Envelope[[]StatJSON]{Data: data})
}
