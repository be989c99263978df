package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ResolvePrice reads the current catalog price of a product. Order placement reads
// the product row once per line item, so a price committed before the read is observed.
func ResolvePrice(ctx context.Context, q pgxQuerier, productID int) (decimal.Decimal, error) {
	p, err := resolveProduct(ctx, q, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.UnitPrice, nil
}

func resolveProduct(ctx context.Context, q pgxQuerier, productID int) (*Product, error) {
	var p Product
	err := q.QueryRow(ctx, `
		SELECT id, grower_id, name, category, unit_price, created_at
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.GrowerID, &p.Name, &p.Category, &p.UnitPrice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(KindProductNotFound, "product %d not found", productID)
		}
		return nil, persistenceError(err, "failed to resolve price for product %d", productID)
	}
	return &p, nil
}
