package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	webAdapter "growmart/internal/adapters/web"
	"growmart/internal/app"
	"growmart/internal/cache"
	"growmart/internal/config"
	"growmart/internal/core"
	"growmart/internal/db"
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
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).
		With("service", cfg.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := cache.New(cfg.RedisAddr)
	defer rdb.Close()
	store := cache.NewStore(rdb)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic, 1024)
	producer.Start()

	policy := app.ShortfallPolicy(cfg.Allocation.AutoProvision, cfg.Allocation.ShelfLifeDays)
	inventoryService := core.NewInventoryService(pool, policy)
	orderService := core.NewOrderService(pool, inventoryService)
	catalogService := core.NewCatalogService(pool)
	reportingService := core.NewReportingService(pool)

	svc := app.NewAppService(orderService, inventoryService, catalogService, reportingService,
		app.WithIdempotency(store),
		app.WithStockCache(store),
		app.WithEvents(events.NewOrderPublisher(producer, cfg.ServiceName)),
	)

	handler := webAdapter.NewHandler(svc, strings.Join(cfg.AllowedOrigins, ","))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr,
			"auto_provision", cfg.Allocation.AutoProvision, "shelf_life_days", cfg.Allocation.ShelfLifeDays)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	producer.Close()
	producer.WaitClosed()
}
