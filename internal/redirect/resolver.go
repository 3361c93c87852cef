// Package redirect turns public short codes into target URLs and counts visits.
package redirect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/metrics"
	"github.com/shortmark/shortmark/internal/shortcode"
	"github.com/shortmark/shortmark/internal/store"
)

// Store is the subset of store.BookmarkStore the resolver needs.
type Store interface {
	Resolve(ctx context.Context, code string) (string, error)
	IncrementVisits(ctx context.Context, code string) error
}

// Cache holds code to URL mappings. It only ever saves the URL select;
// visit counting always goes to the database.
type Cache interface {
	Get(ctx context.Context, code string) (url string, ok bool, err error)
	Set(ctx context.Context, code, url string) error
	Delete(ctx context.Context, code string) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCache) Set(context.Context, string, string) error         { return nil }
func (NopCache) Delete(context.Context, string) error              { return nil }

type Resolver struct {
	store Store
	cache Cache
	log   logger.Logger
}

// New returns a Resolver. A nil cache disables caching.
func New(s Store, c Cache, log logger.Logger) *Resolver {
	if c == nil {
		c = NopCache{}
	}
	return &Resolver{store: s, cache: c, log: log}
}

func codeNotFound(code string) error {
	return &store.Error{
		Kind:   store.ErrNotFound,
		Title:  "Not Found",
		Detail: fmt.Sprintf("No bookmark with short url %q.", code),
	}
}

// Resolve returns the URL for code and records exactly one visit.
// Unknown or malformed codes give store.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	start := time.Now()
	url, err := r.resolve(ctx, code)
	metrics.RedirectDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.RedirectsTotal.WithLabelValues("found").Inc()
	case errors.Is(err, store.ErrNotFound):
		metrics.RedirectsTotal.WithLabelValues("not_found").Inc()
	default:
		metrics.RedirectsTotal.WithLabelValues("error").Inc()
	}
	return url, err
}

func (r *Resolver) resolve(ctx context.Context, code string) (string, error) {
	if !shortcode.Valid(code) {
		return "", codeNotFound(code)
	}

	url, hit, err := r.cache.Get(ctx, code)
	switch {
	case err != nil:
		metrics.RedirectCacheTotal.WithLabelValues("error").Inc()
		r.log.Warn("redirect cache get failed", logger.String("code", code), logger.Err(err))
	case hit:
		metrics.RedirectCacheTotal.WithLabelValues("hit").Inc()
		err := r.store.IncrementVisits(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			r.Forget(ctx, code)
		}
		if err != nil {
			return "", err
		}
		return url, nil
	default:
		metrics.RedirectCacheTotal.WithLabelValues("miss").Inc()
	}

	url, err = r.store.Resolve(ctx, code)
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(ctx, code, url); err != nil {
		r.log.Warn("redirect cache set failed", logger.String("code", code), logger.Err(err))
	}
	return url, nil
}

// Forget drops any cached URL for code. Called after a bookmark's URL
// changes or the bookmark is deleted.
func (r *Resolver) Forget(ctx context.Context, code string) {
	if err := r.cache.Delete(ctx, code); err != nil {
		r.log.Warn("redirect cache delete failed", logger.String("code", code), logger.Err(err))
	}
}
