// Package main provides the CLI entry point for the activityfeed service.
// It handles flag parsing, dependency wiring, and HTTP server lifecycle.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afikmenashe/activityfeed/internal/analytics"
	"github.com/afikmenashe/activityfeed/internal/broker"
	"github.com/afikmenashe/activityfeed/internal/config"
	"github.com/afikmenashe/activityfeed/internal/feed"
	"github.com/afikmenashe/activityfeed/internal/handlers"
	"github.com/afikmenashe/activityfeed/internal/ingest"
	"github.com/afikmenashe/activityfeed/internal/notifications"
	"github.com/afikmenashe/activityfeed/internal/router"
	"github.com/afikmenashe/activityfeed/internal/store"
	"github.com/afikmenashe/activityfeed/internal/svcmetrics"
)

func main() {
	defaults := config.Default()

	cfg := &config.Config{}
	flag.StringVar(&cfg.HTTPPort, "http-port", svcmetrics.GetEnvOrDefault("HTTP_PORT", defaults.HTTPPort), "HTTP server port")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", svcmetrics.GetEnvOrDefault("POSTGRES_DSN", defaults.PostgresDSN), "PostgreSQL connection string")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", svcmetrics.GetEnvOrDefault("REDIS_ADDR", defaults.RedisAddr), "Redis server address")
	flag.IntVar(&cfg.FeedDefaultLimit, "feed-default-limit", defaults.FeedDefaultLimit, "default page size for feed reads")
	flag.IntVar(&cfg.FeedMaxLimit, "feed-max-limit", defaults.FeedMaxLimit, "max page size for feed reads")
	flag.IntVar(&cfg.NotificationDefaultLimit, "notification-default-limit", defaults.NotificationDefaultLimit, "default page size for notification reads")
	flag.IntVar(&cfg.NotificationMaxLimit, "notification-max-limit", defaults.NotificationMaxLimit, "max page size for notification reads")
	flag.IntVar(&cfg.BrokerQueueCapacity, "broker-queue-capacity", defaults.BrokerQueueCapacity, "per-subscriber SSE queue capacity")
	flag.DurationVar(&cfg.SSEKeepAliveInterval, "sse-keep-alive-interval", defaults.SSEKeepAliveInterval, "SSE idle keep-alive interval")
	flag.IntVar(&cfg.SSEBackfillLimit, "sse-backfill-limit", defaults.SSEBackfillLimit, "max notifications backfilled on SSE connect")
	flag.IntVar(&cfg.AnalyticsBucketSeconds, "analytics-bucket-seconds", defaults.AnalyticsBucketSeconds, "sliding-window analytics bucket width in seconds")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	slog.Info("starting activityfeed",
		"http_port", cfg.HTTPPort,
		"postgres_dsn", svcmetrics.MaskDSN(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, shutting down gracefully")
		cancel()
	}()

	slog.Info("connecting to postgres")
	pg, err := store.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	slog.Info("connected to postgres")

	slog.Info("connecting to redis", "addr", cfg.RedisAddr)
	redisClient, err := svcmetrics.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("connected to redis")

	metricsCollector := svcmetrics.NewCollector(redisClient)
	metricsCollector.Start(ctx)
	defer metricsCollector.Stop()
	metricsReader := svcmetrics.NewReader(redisClient)

	b := broker.New()
	reg := analytics.NewRegistry(cfg.AnalyticsBucketSeconds)

	ing := ingest.New(pg, b, reg, nil)
	fr := feed.New(pg)
	nr := notifications.New(pg)

	h := handlers.New(ing, fr, nr, b, reg, pg, metricsCollector, metricsReader)

	server := router.NewServer(cfg.HTTPPort, h)

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("activityfeed stopped")
}
