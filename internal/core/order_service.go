package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService manages order placement and the order lifecycle.
type OrderService interface {
	// ProcessOrder places a confirmed, paid order in one transaction: every line is
	// priced and allocated against inventory, then header, lines, lot debits and
	// payment are written. Any failure leaves the database untouched.
	ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*Order, error)
	// CreateOrder records a pending cart order with priced lines. Inventory is not touched.
	CreateOrder(ctx context.Context, customerID int, orderDate time.Time, items []LineItemInput) (*Order, error)
	// RecordPayment pays a pending order and confirms it.
	RecordPayment(ctx context.Context, orderID int, mode PaymentMode) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int, status OrderStatus) (*Order, error)

	// Queries
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetCustomerOrders(ctx context.Context, customerID int) ([]Order, error)
	GetPayment(ctx context.Context, orderID int) (*Payment, error)
}

type orderService struct {
	pool      *pgxpool.Pool
	allocator *LineAllocator
}

func NewOrderService(pool *pgxpool.Pool, inventory InventoryService) OrderService {
	return &orderService{pool: pool, allocator: NewLineAllocator(inventory)}
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx (for Query).
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func validateItems(items []LineItemInput) error {
	if len(items) == 0 {
		return newError(KindInvalidOrder, "order must have at least one item")
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			return newError(KindInvalidOrder, "item %d: product id is required", i+1)
		}
		if !it.Quantity.IsPositive() {
			return newError(KindInvalidOrder, "item %d: quantity must be positive, got %s", i+1, it.Quantity)
		}
		if !fitsQuantityScale(it.Quantity) {
			return newError(KindInvalidOrder, "item %d: quantity %s has more than %d decimal places", i+1, it.Quantity, QuantityScale)
		}
	}
	return nil
}

func ensureCustomer(ctx context.Context, q pgxQuerier, customerID int) error {
	var id int
	err := q.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1", customerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return newError(KindCustomerNotFound, "customer %d not found", customerID)
		}
		return persistenceError(err, "failed to resolve customer %d", customerID)
	}
	return nil
}

// ── Order placement ──────────────────────────────────────────────────────────

func (s *orderService) ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*Order, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if !req.PaymentMode.Valid() {
		return nil, newError(KindInvalidOrder, "unsupported payment mode %q", req.PaymentMode)
	}
	if req.OrderDate.IsZero() {
		return nil, newError(KindInvalidOrder, "order date is required")
	}
	orderDate := truncateDay(req.OrderDate)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := ensureCustomer(ctx, tx, req.CustomerID); err != nil {
		return nil, err
	}

	lines := make([]*AllocatedLine, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		line, err := s.allocator.PriceAndAllocate(ctx, tx, it.ProductID, it.Quantity, orderDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal)
	}

	order := &Order{
		OrderDate:   orderDate.Format(dateLayout),
		CustomerID:  req.CustomerID,
		TotalAmount: total,
		Status:      OrderStatusConfirmed,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_date, customer_id, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, orderDate, req.CustomerID, total, OrderStatusConfirmed).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, persistenceError(err, "failed to insert order header")
	}

	if order.Lines, err = insertOrderLines(ctx, tx, order.ID, lines); err != nil {
		return nil, err
	}

	payment := &Payment{OrderID: order.ID, Mode: req.PaymentMode, Status: PaymentStatusCompleted, Amount: total}
	if err := tx.QueryRow(ctx, `
		INSERT INTO payments (order_id, mode, status, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, paid_at
	`, order.ID, payment.Mode, payment.Status, payment.Amount).Scan(&payment.ID, &payment.PaidAt); err != nil {
		return nil, persistenceError(err, "failed to insert payment for order %d", order.ID)
	}
	order.Payment = payment

	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err, "failed to commit order")
	}

	slog.Info("order processed", "order_id", order.ID, "customer_id", req.CustomerID,
		"lines", len(lines), "total", total.String())
	return order, nil
}

func insertOrderLines(ctx context.Context, tx pgx.Tx, orderID int, lines []*AllocatedLine) ([]OrderLine, error) {
	out := make([]OrderLine, 0, len(lines))
	for i, line := range lines {
		ol := OrderLine{
			OrderID:     orderID,
			LineNumber:  i + 1,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
			Debits:      line.Debits,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, line_number, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, orderID, ol.LineNumber, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal).Scan(&ol.ID)
		if err != nil {
			return nil, persistenceError(err, "failed to insert order line %d", i+1)
		}
		for _, d := range line.Debits {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_item_allocations (order_item_id, batch_id, quantity)
				VALUES ($1, $2, $3)
			`, ol.ID, d.LotID, d.Quantity); err != nil {
				return nil, persistenceError(err, "failed to record lot debit for line %d", i+1)
			}
		}
		out = append(out, ol)
	}
	return out, nil
}

func (s *orderService) CreateOrder(ctx context.Context, customerID int, orderDate time.Time, items []LineItemInput) (*Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := ensureCustomer(ctx, tx, customerID); err != nil {
		return nil, err
	}

	lines := make([]*AllocatedLine, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		product, err := resolveProduct(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		subtotal := product.UnitPrice.Mul(it.Quantity).Round(2)
		lines = append(lines, &AllocatedLine{
			ProductID:   it.ProductID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   product.UnitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	orderDate = truncateDay(orderDate)
	order := &Order{
		OrderDate:   orderDate.Format(dateLayout),
		CustomerID:  customerID,
		TotalAmount: total,
		Status:      OrderStatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_date, customer_id, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, orderDate, customerID, total, OrderStatusPending).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, persistenceError(err, "failed to insert order header")
	}
	if order.Lines, err = insertOrderLines(ctx, tx, order.ID, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err, "failed to commit order")
	}
	return order, nil
}

// lockOrder fetches status and total of an order with a row lock.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID int) (OrderStatus, decimal.Decimal, error) {
	var status OrderStatus
	var total decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT status, total_amount FROM orders WHERE id = $1 FOR UPDATE", orderID,
	).Scan(&status, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", decimal.Zero, newError(KindOrderNotFound, "order %d not found", orderID)
		}
		return "", decimal.Zero, persistenceError(err, "failed to lock order %d", orderID)
	}
	return status, total, nil
}

func (s *orderService) RecordPayment(ctx context.Context, orderID int, mode PaymentMode) (*Order, error) {
	if !mode.Valid() {
		return nil, newError(KindInvalidOrder, "unsupported payment mode %q", mode)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	status, total, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status != OrderStatusPending {
		return nil, newError(KindInvalidTransition, "order %d is %s, only pending orders accept payment", orderID, status)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO payments (order_id, mode, status, amount)
		VALUES ($1, $2, $3, $4)
	`, orderID, mode, PaymentStatusCompleted, total); err != nil {
		return nil, persistenceError(err, "failed to insert payment for order %d", orderID)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = $2 WHERE id = $1", orderID, OrderStatusConfirmed,
	); err != nil {
		return nil, persistenceError(err, "failed to confirm order %d", orderID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err, "failed to commit payment")
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int, status OrderStatus) (*Order, error) {
	if !status.Valid() {
		return nil, newError(KindInvalidOrder, "unknown order status %q", status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistenceError(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	current, _, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current, status) {
		return nil, newError(KindInvalidTransition, "order %d cannot move from %s to %s", orderID, current, status)
	}
	if _, err := tx.Exec(ctx, "UPDATE orders SET status = $2 WHERE id = $1", orderID, status); err != nil {
		return nil, persistenceError(err, "failed to update order %d", orderID)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, persistenceError(err, "failed to commit status change")
	}
	return s.GetOrder(ctx, orderID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderColumns = `id, order_date::text, customer_id, total_amount, status, created_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.OrderDate, &o.CustomerID, &o.TotalAmount, &o.Status, &o.CreatedAt)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(KindOrderNotFound, "order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	if o.Lines, err = fetchOrderLines(ctx, s.pool, orderID); err != nil {
		return nil, err
	}
	if o.Payment, err = s.findPayment(ctx, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *orderService) GetCustomerOrders(ctx context.Context, customerID int) ([]Order, error) {
	if err := ensureCustomer(ctx, s.pool, customerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = $1 ORDER BY order_date DESC, id DESC",
		customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	for i := range orders {
		if orders[i].Lines, err = fetchOrderLines(ctx, s.pool, orders[i].ID); err != nil {
			return nil, err
		}
		if orders[i].Payment, err = s.findPayment(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *orderService) GetPayment(ctx context.Context, orderID int) (*Payment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check order %d: %w", orderID, err)
	}
	if !exists {
		return nil, newError(KindOrderNotFound, "order %d not found", orderID)
	}
	p, err := s.findPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, newError(KindOrderNotFound, "order %d has no payment", orderID)
	}
	return p, nil
}

func (s *orderService) findPayment(ctx context.Context, orderID int) (*Payment, error) {
	var p Payment
	err := s.pool.QueryRow(ctx, `
		SELECT id, order_id, mode, status, amount, paid_at
		FROM payments
		WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.Mode, &p.Status, &p.Amount, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment for order %d: %w", orderID, err)
	}
	return &p, nil
}

func fetchOrderLines(ctx context.Context, q pgxRowQuerier, orderID int) ([]OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.line_number, p.id, p.name,
		       oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.line_number
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ProductID, &l.ProductName,
			&l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order lines: %w", err)
	}

	for i := range lines {
		debits, err := fetchLineDebits(ctx, q, lines[i].ID)
		if err != nil {
			return nil, err
		}
		lines[i].Debits = debits
	}
	return lines, nil
}

func fetchLineDebits(ctx context.Context, q pgxRowQuerier, orderItemID int) ([]LotDebit, error) {
	rows, err := q.Query(ctx, `
		SELECT a.batch_id, hb.batch_no, a.quantity
		FROM order_item_allocations a
		JOIN harvest_batches hb ON hb.id = a.batch_id
		WHERE a.order_item_id = $1
		ORDER BY a.id
	`, orderItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lot debits: %w", err)
	}
	defer rows.Close()

	var debits []LotDebit
	for rows.Next() {
		var d LotDebit
		if err := rows.Scan(&d.LotID, &d.BatchNo, &d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan lot debit: %w", err)
		}
		debits = append(debits, d)
	}
	return debits, rows.Err()
}
