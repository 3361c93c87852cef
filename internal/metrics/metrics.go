// Package metrics declares the process-wide prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortmark_redirects_total",
		Help: "Total short code resolution attempts.",
	}, []string{"status"})

	RedirectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shortmark_redirect_duration_seconds",
		Help:    "Time spent resolving a short code.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})

	RedirectCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortmark_redirect_cache_total",
		Help: "Redirect cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	BookmarksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortmark_bookmarks_created_total",
		Help: "Bookmarks created through the API.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortmark_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter.",
	})

	BookmarksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shortmark_bookmarks_total",
		Help: "Total number of bookmarks in the database.",
	})

	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shortmark_users_total",
		Help: "Total number of registered users in the database.",
	})
)

// Counter is anything that can report a row count.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// RefreshGauges sets the row-count gauges from users and bookmarks.
func RefreshGauges(ctx context.Context, users, bookmarks Counter) error {
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	UsersTotal.Set(float64(n))

	n, err = bookmarks.Count(ctx)
	if err != nil {
		return err
	}
	BookmarksTotal.Set(float64(n))
	return nil
}

// Poll refreshes the gauges every interval until ctx is done. Errors are
// reported through onErr and do not stop the loop.
func Poll(ctx context.Context, interval time.Duration, users, bookmarks Counter, onErr func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := RefreshGauges(ctx, users, bookmarks); err != nil && ctx.Err() == nil {
			onErr(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
