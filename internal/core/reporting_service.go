package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// GrowerRevenueReport is realized revenue for one grower over an inclusive date range.
// Only lines of confirmed or delivered orders count.
type GrowerRevenueReport struct {
	GrowerID     int             `json:"grower_id"`
	From         string          `json:"start_date"`
	To           string          `json:"end_date"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// GrowerPerformance summarizes a grower's catalog, sales and stock.
// DeliverySuccessRate is the percentage of the grower's orders (any status)
// that reached delivered, rounded to two places.
type GrowerPerformance struct {
	GrowerID            int             `json:"grower_id"`
	GrowerName          string          `json:"grower_name"`
	TotalProducts       int             `json:"total_products"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalOrders         int             `json:"total_orders"`
	AverageOrderValue   decimal.Decimal `json:"average_order_value"`
	AvailableQuantity   decimal.Decimal `json:"available_quantity"`
	ActiveBatches       int             `json:"active_batches"`
	DeliverySuccessRate decimal.Decimal `json:"delivery_success_rate"`
	LastOrderDate       *string         `json:"last_order_date,omitempty"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only queries over committed orders.
type ReportingService interface {
	GrowerRevenue(ctx context.Context, growerID int, from, to time.Time) (*GrowerRevenueReport, error)
	// GrowerPerformance reports as of asOf: stock figures ignore lots expired by then.
	GrowerPerformance(ctx context.Context, growerID int, asOf time.Time) (*GrowerPerformance, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) growerName(ctx context.Context, growerID int) (string, error) {
	var name string
	if err := s.pool.QueryRow(ctx, "SELECT name FROM growers WHERE id = $1", growerID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", newError(KindGrowerNotFound, "grower %d not found", growerID)
		}
		return "", fmt.Errorf("failed to resolve grower: %w", err)
	}
	return name, nil
}

// ── GrowerRevenue ─────────────────────────────────────────────────────────────

func (s *reportingService) GrowerRevenue(ctx context.Context, growerID int, from, to time.Time) (*GrowerRevenueReport, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return nil, newError(KindInvalidOrder, "end date %s is before start date %s",
			to.Format(dateLayout), from.Format(dateLayout))
	}
	if _, err := s.growerName(ctx, growerID); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.subtotal), 0)
		FROM order_items oi
		JOIN orders o   ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.grower_id = $1
		  AND o.order_date BETWEEN $2 AND $3
		  AND o.status IN ($4, $5)
	`, growerID, from, to, OrderStatusConfirmed, OrderStatusDelivered).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to compute grower revenue: %w", err)
	}

	return &GrowerRevenueReport{
		GrowerID:     growerID,
		From:         from.Format(dateLayout),
		To:           to.Format(dateLayout),
		TotalRevenue: total,
	}, nil
}

// ── GrowerPerformance ─────────────────────────────────────────────────────────

func (s *reportingService) GrowerPerformance(ctx context.Context, growerID int, asOf time.Time) (*GrowerPerformance, error) {
	name, err := s.growerName(ctx, growerID)
	if err != nil {
		return nil, err
	}
	perf := &GrowerPerformance{GrowerID: growerID, GrowerName: name}

	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM products WHERE grower_id = $1", growerID,
	).Scan(&perf.TotalProducts); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	// Order-level figures: an order counts once even when it holds several of the grower's lines.
	var delivered, allOrders int
	err = s.pool.QueryRow(ctx, `
		WITH grower_orders AS (
			SELECT DISTINCT o.id, o.status, o.total_amount, o.order_date
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			JOIN products p     ON p.id = oi.product_id
			WHERE p.grower_id = $1
		)
		SELECT COUNT(*) FILTER (WHERE status IN ($2, $3)),
		       COALESCE(AVG(total_amount) FILTER (WHERE status IN ($2, $3)), 0),
		       COUNT(*) FILTER (WHERE status = $3),
		       COUNT(*),
		       MAX(order_date)::text
		FROM grower_orders
	`, growerID, OrderStatusConfirmed, OrderStatusDelivered).Scan(
		&perf.TotalOrders, &perf.AverageOrderValue, &delivered, &allOrders, &perf.LastOrderDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grower orders: %w", err)
	}
	perf.AverageOrderValue = perf.AverageOrderValue.Round(2)
	perf.DeliverySuccessRate = decimal.Zero
	if allOrders > 0 {
		perf.DeliverySuccessRate = decimal.NewFromInt(int64(delivered * 100)).
			Div(decimal.NewFromInt(int64(allOrders))).Round(2)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.subtotal), 0)
		FROM order_items oi
		JOIN orders o   ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.grower_id = $1 AND o.status IN ($2, $3)
	`, growerID, OrderStatusConfirmed, OrderStatusDelivered).Scan(&perf.TotalRevenue); err != nil {
		return nil, fmt.Errorf("failed to sum grower revenue: %w", err)
	}

	if err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(hb.quantity_available), 0),
		       COUNT(*) FILTER (WHERE hb.quantity_available > 0)
		FROM harvest_batches hb
		JOIN products p ON p.id = hb.product_id
		WHERE p.grower_id = $1 AND hb.expiry_date > $2
	`, growerID, truncateDay(asOf)).Scan(&perf.AvailableQuantity, &perf.ActiveBatches); err != nil {
		return nil, fmt.Errorf("failed to sum grower stock: %w", err)
	}

	return perf, nil
}
