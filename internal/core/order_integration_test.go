package core_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"growmart/internal/core"
	"growmart/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Seeded IDs (identities restart on every setup).
const (
	growerGreenValley = 1
	growerSunrise     = 2

	customerAsha = 1
	customerBen  = 2

	productTomato  = 1 // 40.00, Green Valley
	productSpinach = 2 // 25.50, Green Valley
	productMango   = 3 // 120.00, Sunrise
)

var orderDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database: every run truncates all tables.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payments, order_item_allocations, order_items, orders,
		               harvest_batches, products, customers, growers
		RESTART IDENTITY CASCADE;

		INSERT INTO growers (name, contact_no, address) VALUES
		('Green Valley Farm', '+91-9800000101', 'Nashik'),
		('Sunrise Orchards',  '+91-9800000102', 'Ratnagiri');

		INSERT INTO customers (name, email, contact_no, address) VALUES
		('Asha Rao',   'asha@example.com', '+91-9800000201', 'Pune'),
		('Ben Thomas', 'ben@example.com',  '+91-9800000202', 'Mumbai');

		INSERT INTO products (grower_id, name, category, unit_price) VALUES
		(1, 'Tomato',  'vegetable', 40.00),
		(1, 'Spinach', 'leafy',     25.50),
		(2, 'Mango',   'fruit',     120.00);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func setupOrderTest(t *testing.T) (*pgxpool.Pool, core.OrderService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	inv := core.NewInventoryService(pool, core.DefaultShortfallPolicy(30))
	return pool, core.NewOrderService(pool, inv), context.Background()
}

func insertLot(t *testing.T, pool *pgxpool.Pool, productID int, batch string, harvest, expiry time.Time, qty string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO harvest_batches (product_id, batch_no, harvest_date, expiry_date, quantity_available)
		VALUES ($1, $2, $3, $4, $5)
	`, productID, batch, harvest, expiry, decimal.RequireFromString(qty))
	if err != nil {
		t.Fatalf("Failed to insert lot %s: %v", batch, err)
	}
}

func lotQty(t *testing.T, pool *pgxpool.Pool, productID int, batch string) decimal.Decimal {
	t.Helper()
	var q decimal.Decimal
	err := pool.QueryRow(context.Background(),
		"SELECT quantity_available FROM harvest_batches WHERE product_id = $1 AND batch_no = $2",
		productID, batch).Scan(&q)
	if err != nil {
		t.Fatalf("Failed to read lot %s: %v", batch, err)
	}
	return q
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func daysFrom(base time.Time, n int) time.Time { return base.AddDate(0, 0, n) }

func TestProcessOrder_AllocatesOldestHarvestFirst(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T-NEW", daysFrom(orderDay, -7), daysFrom(orderDay, 10), "5")
	insertLot(t, pool, productTomato, "T-OLD", daysFrom(orderDay, -9), daysFrom(orderDay, 10), "5")

	order, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentUPI,
		Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("7")}},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}

	if got := lotQty(t, pool, productTomato, "T-OLD"); !got.IsZero() {
		t.Errorf("Oldest lot should be drained, has %s", got)
	}
	if got := lotQty(t, pool, productTomato, "T-NEW"); !got.Equal(d("3")) {
		t.Errorf("Newer lot should keep 3, has %s", got)
	}
	if order.Status != core.OrderStatusConfirmed {
		t.Errorf("Expected confirmed, got %s", order.Status)
	}
	if order.OrderDate != "2025-03-10" {
		t.Errorf("Expected order date 2025-03-10, got %s", order.OrderDate)
	}
	if !order.TotalAmount.Equal(d("280")) {
		t.Errorf("Expected total 280, got %s", order.TotalAmount)
	}
	if len(order.Lines) != 1 || len(order.Lines[0].Debits) != 2 {
		t.Fatalf("Expected one line with two lot debits, got %+v", order.Lines)
	}
	if order.Lines[0].Debits[0].BatchNo != "T-OLD" || !order.Lines[0].Debits[0].Quantity.Equal(d("5")) {
		t.Errorf("First debit should take 5 from T-OLD, got %+v", order.Lines[0].Debits[0])
	}
	if order.Payment == nil || order.Payment.Mode != core.PaymentUPI || !order.Payment.Amount.Equal(d("280")) {
		t.Errorf("Expected completed UPI payment of 280, got %+v", order.Payment)
	}
}

func TestProcessOrder_ExpiredLotUntouched(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T-EXP", daysFrom(orderDay, -20), daysFrom(orderDay, -5), "100")
	insertLot(t, pool, productTomato, "T-TODAY", daysFrom(orderDay, -3), orderDay, "100") // expires on order day
	insertLot(t, pool, productTomato, "T-FRESH", daysFrom(orderDay, -1), daysFrom(orderDay, 5), "2")

	_, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCash,
		Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("5")}},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}

	if got := lotQty(t, pool, productTomato, "T-EXP"); !got.Equal(d("100")) {
		t.Errorf("Expired lot must not be debited, has %s", got)
	}
	if got := lotQty(t, pool, productTomato, "T-TODAY"); !got.Equal(d("100")) {
		t.Errorf("Lot expiring on the order date must not be debited, has %s", got)
	}
	if got := lotQty(t, pool, productTomato, "T-FRESH"); !got.IsZero() {
		t.Errorf("Fresh lot should be drained, has %s", got)
	}

	var synthesized int
	var harvest time.Time
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(harvest_date) FROM harvest_batches
		WHERE product_id = $1 AND batch_no LIKE 'AUTO-%'
	`, productTomato).Scan(&synthesized, &harvest)
	if err != nil {
		t.Fatalf("Failed to query synthesized lots: %v", err)
	}
	if synthesized != 1 {
		t.Errorf("Expected exactly one synthesized lot for the deficit, got %d", synthesized)
	}
	if !harvest.Equal(orderDay) {
		t.Errorf("Synthesized lot should be harvested on the order date, got %s", harvest)
	}
}

func TestProcessOrder_FirstSaleAutoProvisions(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)

	order, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerBen,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCard,
		Items:       []core.LineItemInput{{ProductID: productMango, Quantity: d("4")}},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}

	var lots int
	var remaining decimal.Decimal
	var expiry time.Time
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity_available), 0), MAX(expiry_date)
		FROM harvest_batches WHERE product_id = $1
	`, productMango).Scan(&lots, &remaining, &expiry)
	if err != nil {
		t.Fatalf("Failed to query lots: %v", err)
	}
	if lots != 1 {
		t.Errorf("Expected exactly one lot created, got %d", lots)
	}
	if !remaining.IsZero() {
		t.Errorf("Created lot should be fully consumed, has %s", remaining)
	}
	if !expiry.Equal(daysFrom(orderDay, 30)) {
		t.Errorf("Expected expiry %s, got %s", daysFrom(orderDay, 30), expiry)
	}
	if !order.TotalAmount.Equal(d("480")) {
		t.Errorf("Expected total 480, got %s", order.TotalAmount)
	}
}

func TestProcessOrder_ShortfallSynthesizesExactDeficit(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T1", daysFrom(orderDay, -2), daysFrom(orderDay, 5), "3")

	order, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCash,
		Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("10")}},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}

	if got := lotQty(t, pool, productTomato, "T1"); !got.IsZero() {
		t.Errorf("Existing lot should be drained, has %s", got)
	}

	var lots int
	var remaining decimal.Decimal
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity_available), 0)
		FROM harvest_batches WHERE product_id = $1 AND batch_no <> 'T1'
	`, productTomato).Scan(&lots, &remaining)
	if err != nil {
		t.Fatalf("Failed to query synthesized lots: %v", err)
	}
	if lots != 1 {
		t.Errorf("Expected one synthesized lot, got %d", lots)
	}
	if !remaining.IsZero() {
		t.Errorf("Synthesized lot should be fully consumed, has %s", remaining)
	}

	var debited decimal.Decimal
	err = pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(a.quantity), 0)
		FROM order_item_allocations a
		JOIN order_items i ON i.id = a.order_item_id
		WHERE i.order_id = $1
	`, order.ID).Scan(&debited)
	if err != nil {
		t.Fatalf("Failed to sum allocations: %v", err)
	}
	if !debited.Equal(d("10")) {
		t.Errorf("Expected 10 debited across lots, got %s", debited)
	}

	if len(order.Lines) != 1 || len(order.Lines[0].Debits) != 2 {
		t.Fatalf("Expected one line with two debits, got %+v", order.Lines)
	}
	first, second := order.Lines[0].Debits[0], order.Lines[0].Debits[1]
	if first.BatchNo != "T1" || !first.Quantity.Equal(d("3")) {
		t.Errorf("First debit should take 3 from T1, got %s:%s", first.BatchNo, first.Quantity)
	}
	if !second.Quantity.Equal(d("7")) {
		t.Errorf("Synthesized debit should cover the deficit of 7, got %s", second.Quantity)
	}
}

func TestProcessOrder_AtomicOnUnknownProduct(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T1", daysFrom(orderDay, -2), daysFrom(orderDay, 10), "10")

	_, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCash,
		Items: []core.LineItemInput{
			{ProductID: productTomato, Quantity: d("3")},
			{ProductID: productSpinach, Quantity: d("2")}, // no lots: would auto-provision
			{ProductID: 999, Quantity: d("1")},
		},
	})
	if !core.IsKind(err, core.KindProductNotFound) {
		t.Fatalf("Expected PRODUCT_NOT_FOUND, got %v", err)
	}

	if got := lotQty(t, pool, productTomato, "T1"); !got.Equal(d("10")) {
		t.Errorf("Lot must be restored by rollback, has %s", got)
	}
	for _, table := range []string{"orders", "order_items", "order_item_allocations", "payments"} {
		if n := countRows(t, pool, table); n != 0 {
			t.Errorf("Expected no rows in %s after rollback, got %d", table, n)
		}
	}
	if n := countRows(t, pool, "harvest_batches"); n != 1 {
		t.Errorf("Auto-provisioned lot must be rolled back, have %d lots", n)
	}
}

func TestProcessOrder_TotalMatchesLinesAndPayment(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productSpinach, "S1", daysFrom(orderDay, -1), daysFrom(orderDay, 3), "1")

	order, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentBankTransfer,
		Items: []core.LineItemInput{
			{ProductID: productTomato, Quantity: d("2.5")},
			{ProductID: productSpinach, Quantity: d("3")},
			{ProductID: productTomato, Quantity: d("1")},
		},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}

	sum := decimal.Zero
	for i, l := range order.Lines {
		if l.LineNumber != i+1 {
			t.Errorf("Line %d has line number %d", i, l.LineNumber)
		}
		if !l.Subtotal.Equal(l.UnitPrice.Mul(l.Quantity)) {
			t.Errorf("Line %d subtotal %s != %s x %s", i, l.Subtotal, l.UnitPrice, l.Quantity)
		}
		sum = sum.Add(l.Subtotal)
	}
	if !sum.Equal(d("216.5")) || !order.TotalAmount.Equal(sum) {
		t.Errorf("Expected total 216.50 equal to line sum %s, got %s", sum, order.TotalAmount)
	}
	if !order.Payment.Amount.Equal(order.TotalAmount) {
		t.Errorf("Payment %s must equal total %s", order.Payment.Amount, order.TotalAmount)
	}
	if got := lotQty(t, pool, productSpinach, "S1"); !got.IsZero() {
		t.Errorf("Spinach lot should be drained before synthesis, has %s", got)
	}
}

func TestProcessOrder_ResultMatchesStoredOrder(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T1", daysFrom(orderDay, -1), daysFrom(orderDay, 4), "1.5")

	placed, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerBen,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentUPI,
		Items: []core.LineItemInput{
			{ProductID: productTomato, Quantity: d("2")},
			{ProductID: productMango, Quantity: d("0.75")},
		},
	})
	if err != nil {
		t.Fatalf("ProcessOrder failed: %v", err)
	}
	stored, err := orders.GetOrder(ctx, placed.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if placed.OrderDate != stored.OrderDate || placed.Status != stored.Status || !placed.TotalAmount.Equal(stored.TotalAmount) {
		t.Errorf("Header mismatch: placed %+v, stored %+v", placed, stored)
	}
	if placed.Payment == nil || stored.Payment == nil || placed.Payment.ID != stored.Payment.ID ||
		placed.Payment.Mode != stored.Payment.Mode || !placed.Payment.Amount.Equal(stored.Payment.Amount) {
		t.Errorf("Payment mismatch: placed %+v, stored %+v", placed.Payment, stored.Payment)
	}
	if len(placed.Lines) != len(stored.Lines) {
		t.Fatalf("Expected %d lines, got %d", len(stored.Lines), len(placed.Lines))
	}
	for i := range stored.Lines {
		p, s := placed.Lines[i], stored.Lines[i]
		if p.ID != s.ID || p.ProductName != s.ProductName || !p.Quantity.Equal(s.Quantity) || !p.Subtotal.Equal(s.Subtotal) {
			t.Errorf("Line %d mismatch: placed %+v, stored %+v", i+1, p, s)
		}
		if len(p.Debits) != len(s.Debits) {
			t.Fatalf("Line %d: expected %d debits, got %d", i+1, len(s.Debits), len(p.Debits))
		}
		for j := range s.Debits {
			if p.Debits[j].LotID != s.Debits[j].LotID || !p.Debits[j].Quantity.Equal(s.Debits[j].Quantity) {
				t.Errorf("Line %d debit %d mismatch: placed %+v, stored %+v", i+1, j+1, p.Debits[j], s.Debits[j])
			}
		}
	}
}

func TestProcessOrder_UsesFreshPrice(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	catalog := core.NewCatalogService(pool)
	req := core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCash,
		Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("2")}},
	}

	first, err := orders.ProcessOrder(ctx, req)
	if err != nil {
		t.Fatalf("First order failed: %v", err)
	}
	if _, err := catalog.UpdateProductPrice(ctx, productTomato, d("55")); err != nil {
		t.Fatalf("UpdateProductPrice failed: %v", err)
	}
	second, err := orders.ProcessOrder(ctx, req)
	if err != nil {
		t.Fatalf("Second order failed: %v", err)
	}

	if !second.Lines[0].UnitPrice.Equal(d("55")) || !second.TotalAmount.Equal(d("110")) {
		t.Errorf("Second order should use the new price, got %s / %s", second.Lines[0].UnitPrice, second.TotalAmount)
	}
	reloaded, err := orders.GetOrder(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if !reloaded.Lines[0].Subtotal.Equal(d("80")) {
		t.Errorf("Existing line must keep its original subtotal, got %s", reloaded.Lines[0].Subtotal)
	}
}

func TestProcessOrder_Validation(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	item := []core.LineItemInput{{ProductID: productTomato, Quantity: d("1")}}

	cases := []struct {
		name string
		req  core.ProcessOrderRequest
		kind core.ErrorKind
	}{
		{"no items", core.ProcessOrderRequest{CustomerID: customerAsha, OrderDate: orderDay, PaymentMode: core.PaymentCash}, core.KindInvalidOrder},
		{"zero quantity", core.ProcessOrderRequest{CustomerID: customerAsha, OrderDate: orderDay, PaymentMode: core.PaymentCash,
			Items: []core.LineItemInput{{ProductID: productTomato, Quantity: decimal.Zero}}}, core.KindInvalidOrder},
		{"quantity below stored precision", core.ProcessOrderRequest{CustomerID: customerAsha, OrderDate: orderDay, PaymentMode: core.PaymentCash,
			Items: []core.LineItemInput{{ProductID: productMango, Quantity: d("2.0004")}}}, core.KindInvalidOrder},
		{"quantity rounding up at stored precision", core.ProcessOrderRequest{CustomerID: customerAsha, OrderDate: orderDay, PaymentMode: core.PaymentCash,
			Items: []core.LineItemInput{{ProductID: productMango, Quantity: d("2.0006")}}}, core.KindInvalidOrder},
		{"bad payment mode", core.ProcessOrderRequest{CustomerID: customerAsha, OrderDate: orderDay, PaymentMode: "cheque", Items: item}, core.KindInvalidOrder},
		{"missing date", core.ProcessOrderRequest{CustomerID: customerAsha, PaymentMode: core.PaymentCash, Items: item}, core.KindInvalidOrder},
		{"unknown customer", core.ProcessOrderRequest{CustomerID: 404, OrderDate: orderDay, PaymentMode: core.PaymentCash, Items: item}, core.KindCustomerNotFound},
	}
	for _, tc := range cases {
		_, err := orders.ProcessOrder(ctx, tc.req)
		if !core.IsKind(err, tc.kind) {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.kind, err)
		}
	}
	if n := countRows(t, pool, "harvest_batches"); n != 0 {
		t.Errorf("Rejected orders must not create lots, got %d", n)
	}
}

func TestProcessOrder_RejectPolicy(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.NewInventoryService(pool, core.RejectShortfallPolicy))
	insertLot(t, pool, productTomato, "T1", daysFrom(orderDay, -1), daysFrom(orderDay, 5), "2")

	_, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  customerAsha,
		OrderDate:   orderDay,
		PaymentMode: core.PaymentCash,
		Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("3")}},
	})
	if !core.IsKind(err, core.KindInsufficientStock) {
		t.Fatalf("Expected INSUFFICIENT_STOCK, got %v", err)
	}
	if got := lotQty(t, pool, productTomato, "T1"); !got.Equal(d("2")) {
		t.Errorf("Lot must be untouched, has %s", got)
	}
}

func TestProcessOrder_ConcurrentOrdersSerializeOnLots(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)
	insertLot(t, pool, productTomato, "T1", daysFrom(orderDay, -1), daysFrom(orderDay, 5), "10")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = orders.ProcessOrder(ctx, core.ProcessOrderRequest{
				CustomerID:  customerAsha,
				OrderDate:   orderDay,
				PaymentMode: core.PaymentCash,
				Items:       []core.LineItemInput{{ProductID: productTomato, Quantity: d("6")}},
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("Order %d failed: %v", i, err)
		}
	}

	if got := lotQty(t, pool, productTomato, "T1"); !got.IsZero() {
		t.Errorf("Shared lot should be drained exactly once, has %s", got)
	}
	var debited decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT SUM(quantity) FROM order_item_allocations").Scan(&debited); err != nil {
		t.Fatalf("Failed to sum debits: %v", err)
	}
	if !debited.Equal(d("12")) {
		t.Errorf("Expected 12 debited across both orders, got %s", debited)
	}
}

func TestOrderLifecycle_PendingToDelivered(t *testing.T) {
	pool, orders, ctx := setupOrderTest(t)

	order, err := orders.CreateOrder(ctx, customerBen, orderDay, []core.LineItemInput{
		{ProductID: productSpinach, Quantity: d("2")},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Status != core.OrderStatusPending || order.Payment != nil {
		t.Fatalf("Expected unpaid pending order, got %s / %+v", order.Status, order.Payment)
	}
	if !order.TotalAmount.Equal(d("51")) {
		t.Errorf("Expected total 51, got %s", order.TotalAmount)
	}
	if n := countRows(t, pool, "harvest_batches"); n != 0 {
		t.Errorf("Cart orders must not touch inventory, got %d lots", n)
	}
	if _, err := orders.GetPayment(ctx, order.ID); !core.IsKind(err, core.KindOrderNotFound) {
		t.Errorf("Expected no payment yet, got %v", err)
	}

	order, err = orders.RecordPayment(ctx, order.ID, core.PaymentCard)
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if order.Status != core.OrderStatusConfirmed || order.Payment == nil || !order.Payment.Amount.Equal(d("51")) {
		t.Errorf("Expected confirmed order with payment 51, got %s / %+v", order.Status, order.Payment)
	}
	if _, err := orders.RecordPayment(ctx, order.ID, core.PaymentCash); !core.IsKind(err, core.KindInvalidTransition) {
		t.Errorf("Second payment should be rejected, got %v", err)
	}

	order, err = orders.UpdateStatus(ctx, order.ID, core.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if order.Status != core.OrderStatusDelivered {
		t.Errorf("Expected delivered, got %s", order.Status)
	}
	if _, err := orders.UpdateStatus(ctx, order.ID, core.OrderStatusCancelled); !core.IsKind(err, core.KindInvalidTransition) {
		t.Errorf("Delivered order must not be cancelled, got %v", err)
	}
	if _, err := orders.UpdateStatus(ctx, 9999, core.OrderStatusCancelled); !core.IsKind(err, core.KindOrderNotFound) {
		t.Errorf("Expected ORDER_NOT_FOUND, got %v", err)
	}
}

func TestGetCustomerOrders(t *testing.T) {
	_, orders, ctx := setupOrderTest(t)

	for i := 0; i < 2; i++ {
		if _, err := orders.ProcessOrder(ctx, core.ProcessOrderRequest{
			CustomerID:  customerAsha,
			OrderDate:   daysFrom(orderDay, i),
			PaymentMode: core.PaymentCash,
			Items:       []core.LineItemInput{{ProductID: productMango, Quantity: d("1")}},
		}); err != nil {
			t.Fatalf("ProcessOrder %d failed: %v", i, err)
		}
	}

	list, err := orders.GetCustomerOrders(ctx, customerAsha)
	if err != nil {
		t.Fatalf("GetCustomerOrders failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(list))
	}
	if list[0].OrderDate != "2025-03-11" {
		t.Errorf("Expected newest order first, got %s", list[0].OrderDate)
	}
	if len(list[0].Lines) != 1 || list[0].Payment == nil {
		t.Errorf("Orders should carry lines and payment, got %+v", list[0])
	}

	empty, err := orders.GetCustomerOrders(ctx, customerBen)
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected no orders for Ben, got %d (%v)", len(empty), err)
	}
	if _, err := orders.GetCustomerOrders(ctx, 404); !core.IsKind(err, core.KindCustomerNotFound) {
		t.Errorf("Expected CUSTOMER_NOT_FOUND, got %v", err)
	}
}
