// seed loads demo growers, customers, products and harvest batches.
// It is safe to run repeatedly: rows that already exist are left alone.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"growmart/internal/config"
	"growmart/internal/db"
	"growmart/migrations"

	"github.com/joho/godotenv"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("config", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		fatal("failed to connect", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		fatal("failed to migrate", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		fatal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	slog.Info("seeding growers")
	_, err = tx.Exec(ctx, `
		INSERT INTO growers (name, contact_no, address)
		SELECT v.name, v.contact_no, v.address
		FROM (VALUES
		    ('Green Valley Farms', '9800000001', 'Nashik'),
		    ('Sunrise Orchards',   '9800000002', 'Ratnagiri')
		) AS v(name, contact_no, address)
		WHERE NOT EXISTS (SELECT 1 FROM growers g WHERE g.name = v.name)
	`)
	if err != nil {
		fatal("failed to seed growers", err)
	}

	slog.Info("seeding customers")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (name, email, contact_no, address)
		SELECT v.name, v.email, v.contact_no, v.address
		FROM (VALUES
		    ('Asha Kulkarni', 'asha@example.com', '9900000001', 'Pune'),
		    ('Ben Thomas',    'ben@example.com',  '9900000002', 'Mumbai')
		) AS v(name, email, contact_no, address)
		WHERE NOT EXISTS (SELECT 1 FROM customers c WHERE c.email = v.email)
	`)
	if err != nil {
		fatal("failed to seed customers", err)
	}

	slog.Info("seeding products")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (grower_id, name, category, unit_price)
		SELECT g.id, v.name, v.category, v.unit_price
		FROM (VALUES
		    ('Green Valley Farms', 'Tomato',  'vegetable', 40.00),
		    ('Green Valley Farms', 'Spinach', 'leafy',     25.50),
		    ('Sunrise Orchards',   'Mango',   'fruit',     120.00)
		) AS v(grower, name, category, unit_price)
		JOIN growers g ON g.name = v.grower
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.grower_id = g.id AND p.name = v.name)
	`)
	if err != nil {
		fatal("failed to seed products", err)
	}

	slog.Info("seeding harvest batches")
	today := time.Now().UTC().Truncate(24 * time.Hour)
	_, err = tx.Exec(ctx, `
		INSERT INTO harvest_batches (product_id, batch_no, harvest_date, expiry_date, quantity_available)
		SELECT p.id, v.batch_no, $1::date + v.harvested, $1::date + v.expires, v.qty
		FROM (VALUES
		    ('Tomato',  'TOM-001', -6, 8,  50.000),
		    ('Tomato',  'TOM-002', -2, 12, 80.000),
		    ('Spinach', 'SPN-001', -1, 4,  30.000),
		    ('Mango',   'MNG-001', -3, 18, 120.000)
		) AS v(product, batch_no, harvested, expires, qty)
		JOIN products p ON p.name = v.product
		ON CONFLICT (product_id, batch_no) DO NOTHING
	`, today)
	if err != nil {
		fatal("failed to seed harvest batches", err)
	}

	if err := tx.Commit(ctx); err != nil {
		fatal("failed to commit", err)
	}
	slog.Info("seed data loaded")
}
