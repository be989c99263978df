package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"growmart/internal/adapters/cli"
	"growmart/internal/adapters/repl"
	"growmart/internal/app"
	"growmart/internal/cache"
	"growmart/internal/config"
	"growmart/internal/core"
	"growmart/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	policy := app.ShortfallPolicy(cfg.Allocation.AutoProvision, cfg.Allocation.ShelfLifeDays)
	inventoryService := core.NewInventoryService(pool, policy)

	var opts []app.Option
	// The stock cache is optional for the CLI; without Redis every read hits Postgres.
	rdb := cache.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err == nil {
		opts = append(opts, app.WithStockCache(cache.NewStore(rdb)))
	} else {
		slog.Debug("redis unavailable, stock cache disabled", "error", err)
	}

	svc := app.NewAppService(
		core.NewOrderService(pool, inventoryService),
		inventoryService,
		core.NewCatalogService(pool),
		core.NewReportingService(pool),
		opts...,
	)

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
			if kind := core.ErrorKindOf(err); kind != "" {
				fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			if errors.Is(err, cli.ErrUsage) {
				os.Exit(2)
			}
			os.Exit(1)
		}
		return
	}

	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}
