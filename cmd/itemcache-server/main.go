// Command itemcache-server serves flash-sale item lookups over HTTP from a
// two-tier cache in front of the catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/cache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/catalog"
	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/lock"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/Sternrassler/flashsale-itemcache/pkg/ratelimit"
	"github.com/Sternrassler/flashsale-itemcache/pkg/warmup"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "itemcache-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string) error {
	cfg, err := loadConfig(getenv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(cfg.Logging)
	logger := logging.NewLogger("server")

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
	}
	logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")

	store, err := newItemStore(cfg, redisClient, logger)
	if err != nil {
		return err
	}

	svc, err := itemcache.NewService(cfg.Cache, store, cache.NewManager(redisClient), lock.NewRedisLocker(redisClient, lock.DefaultConfig()))
	if err != nil {
		return fmt.Errorf("create item cache: %w", err)
	}

	if len(cfg.WarmupIDs) > 0 {
		if _, err := warmup.NewWarmer(svc, warmup.DefaultConfig()).Warm(ctx, cfg.WarmupIDs); err != nil {
			return fmt.Errorf("warm up: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(svc, cfg.LookupBudget, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(ctx, srv, logger)
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting item cache server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newRedisClient accepts either a redis:// URL or a bare host:port.
func newRedisClient(url string) (*redis.Client, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: url}), nil
}

// newItemStore returns the catalog client, or an empty in-memory store
// when no catalog is configured.
func newItemStore(cfg serverConfig, redisClient *redis.Client, logger zerolog.Logger) (itemcache.ItemStore, error) {
	if cfg.CatalogURL == "" {
		logger.Warn().Msg("CATALOG_URL not set, serving from an empty in-memory store")
		return catalog.NewMemoryStore(), nil
	}

	ccfg := catalog.DefaultConfig(cfg.CatalogURL)
	ccfg.RateLimiter = ratelimit.NewTracker(redisClient, ratelimit.DefaultConfig(), logging.NewLogger("ratelimit"))
	client, err := catalog.New(ccfg)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	logger.Info().Str("catalog", cfg.CatalogURL).Msg("Using catalog service")
	return client, nil
}
