package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages growers, customers and the product catalog.
type CatalogService interface {
	CreateGrower(ctx context.Context, name, contactNo, address string) (*Grower, error)
	CreateCustomer(ctx context.Context, name, email, contactNo, address string) (*Customer, error)
	CreateProduct(ctx context.Context, growerID int, name, category string, unitPrice decimal.Decimal) (*Product, error)
	// UpdateProductPrice changes the catalog price. Orders placed afterwards use the new
	// price; existing order lines keep the price they were placed at.
	UpdateProductPrice(ctx context.Context, productID int, unitPrice decimal.Decimal) (*Product, error)

	// GetProducts lists the catalog with available quantity over lots not expired on asOf.
	GetProducts(ctx context.Context, asOf time.Time) ([]Product, error)
	GetProduct(ctx context.Context, productID int, asOf time.Time) (*Product, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateGrower(ctx context.Context, name, contactNo, address string) (*Grower, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidOrder, "grower name is required")
	}
	var g Grower
	err := s.pool.QueryRow(ctx, `
		INSERT INTO growers (name, contact_no, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, contact_no, address, created_at
	`, name, contactNo, address).Scan(&g.ID, &g.Name, &g.ContactNo, &g.Address, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create grower: %w", err)
	}
	return &g, nil
}

func (s *catalogService) CreateCustomer(ctx context.Context, name, email, contactNo, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidOrder, "customer name is required")
	}
	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, contact_no, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, contact_no, address, created_at
	`, name, email, contactNo, address).Scan(&c.ID, &c.Name, &c.Email, &c.ContactNo, &c.Address, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, growerID int, name, category string, unitPrice decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidOrder, "product name is required")
	}
	if unitPrice.IsNegative() {
		return nil, newError(KindInvalidOrder, "unit price cannot be negative, got %s", unitPrice)
	}

	var growerName string
	if err := s.pool.QueryRow(ctx, "SELECT name FROM growers WHERE id = $1", growerID).Scan(&growerName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(KindGrowerNotFound, "grower %d not found", growerID)
		}
		return nil, fmt.Errorf("failed to resolve grower: %w", err)
	}

	p := Product{GrowerName: growerName, Available: decimal.Zero}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (grower_id, name, category, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, grower_id, name, category, unit_price, created_at
	`, growerID, name, category, unitPrice).Scan(&p.ID, &p.GrowerID, &p.Name, &p.Category, &p.UnitPrice, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *catalogService) UpdateProductPrice(ctx context.Context, productID int, unitPrice decimal.Decimal) (*Product, error) {
	if unitPrice.IsNegative() {
		return nil, newError(KindInvalidOrder, "unit price cannot be negative, got %s", unitPrice)
	}
	tag, err := s.pool.Exec(ctx, "UPDATE products SET unit_price = $2 WHERE id = $1", productID, unitPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, newError(KindProductNotFound, "product %d not found", productID)
	}
	return s.GetProduct(ctx, productID, time.Now())
}

const productListQuery = `
	SELECT p.id, p.grower_id, g.name, p.name, p.category, p.unit_price, p.created_at,
	       COALESCE(SUM(hb.quantity_available) FILTER (WHERE hb.expiry_date > $1), 0)
	FROM products p
	JOIN growers g ON g.id = p.grower_id
	LEFT JOIN harvest_batches hb ON hb.product_id = p.id
`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.GrowerID, &p.GrowerName, &p.Name, &p.Category, &p.UnitPrice, &p.CreatedAt, &p.Available)
}

func (s *catalogService) GetProducts(ctx context.Context, asOf time.Time) ([]Product, error) {
	rows, err := s.pool.Query(ctx, productListQuery+`
		GROUP BY p.id, g.name
		ORDER BY p.id
	`, truncateDay(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int, asOf time.Time) (*Product, error) {
	var p Product
	err := scanProduct(s.pool.QueryRow(ctx, productListQuery+`
		WHERE p.id = $2
		GROUP BY p.id, g.name
	`, truncateDay(asOf), productID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(KindProductNotFound, "product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return &p, nil
}
