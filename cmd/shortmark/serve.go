package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shortmark/shortmark/internal/api"
	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/build"
	"github.com/shortmark/shortmark/internal/cache"
	"github.com/shortmark/shortmark/internal/config"
	"github.com/shortmark/shortmark/internal/db"
	"github.com/shortmark/shortmark/internal/httpserver"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/metrics"
	"github.com/shortmark/shortmark/internal/redirect"
	"github.com/shortmark/shortmark/internal/shortcode"
	"github.com/shortmark/shortmark/internal/store"
)

const gaugeInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Level, cfg.Log.Pretty)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		return err
	}

	seed, err := auth.ParseSeed(cfg.Token.Seed)
	if err != nil {
		return err
	}
	if seed == nil {
		log.Warn("SHORTMARK_TOKEN_SEED is not set; using an ephemeral signing key, issued tokens will not survive a restart")
	}
	tokens, err := auth.NewTokens(auth.TokenOptions{
		Seed:       seed,
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
	})
	if err != nil {
		return err
	}

	users := store.NewUserStore(database)
	bookmarks := store.NewBookmarkStore(database, shortcode.New())
	svc := auth.NewService(users, auth.BcryptHasher{Cost: cfg.BcryptCost}, tokens)

	var redirectCache redirect.Cache
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cache.DefaultConnectOptions(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), log)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		redirectCache = cache.NewRedirectCache(client, cache.DefaultTTL)
	}
	resolver := redirect.New(bookmarks, redirectCache, log.With(logger.String("component", "redirect")))

	router := api.NewRouter(api.Deps{
		Auth:       svc,
		Bookmarks:  bookmarks,
		Resolver:   resolver,
		DB:         database,
		Log:        log,
		RateLimit:  api.RateLimitConfig{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst},
		TrustProxy: cfg.HTTP.TrustProxy,
	})
	srv := httpserver.New(cfg.HTTP.Addr, router, log)

	log.Info("starting shortmark",
		logger.String("version", build.Version),
		logger.String("driver", cfg.DB.Driver),
		logger.String("base_url", cfg.HTTP.BaseURL),
		logger.Bool("redirect_cache", redirectCache != nil))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		metrics.Poll(gctx, gaugeInterval, users, bookmarks, func(err error) {
			log.Warn("refresh metrics gauges", logger.Err(err))
		})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	return g.Wait()
}
