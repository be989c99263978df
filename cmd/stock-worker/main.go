// stock-worker consumes order.placed events and invalidates cached stock levels.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"growmart/internal/cache"
	"growmart/internal/config"
	"growmart/internal/events"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	service := cfg.ServiceName + "-stock-worker"
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).
		With("service", service))

	workers := 4
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := cache.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis", "error", err)
		os.Exit(1)
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, service, cfg.OrderTopic, workers)
	slog.Info("stock worker started", "topic", cfg.OrderTopic, "workers", workers)

	err = consumer.Start(ctx, events.StockInvalidationHandler(cache.NewStore(rdb), service))
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("stock worker stopped")
}
