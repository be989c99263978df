package app

import (
	"context"

	"growmart/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// ProcessOrder places a paid, confirmed order atomically. A non-empty
	// IdempotencyKey makes retries return the order created by the first attempt.
	ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*OrderResult, error)

	// CreateOrder records a pending cart order; inventory is untouched until fulfilment.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// RecordPayment pays a pending order and confirms it.
	RecordPayment(ctx context.Context, orderID int, mode string) (*OrderResult, error)

	// UpdateOrderStatus applies an administrative status transition.
	UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error)

	GetOrder(ctx context.Context, orderID int) (*OrderResult, error)
	GetCustomerOrders(ctx context.Context, customerID int) (*OrderListResult, error)
	GetPayment(ctx context.Context, orderID int) (*core.Payment, error)

	// Catalog
	CreateGrower(ctx context.Context, req CreateGrowerRequest) (*core.Grower, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)
	UpdateProductPrice(ctx context.Context, req UpdatePriceRequest) (*core.Product, error)
	ListProducts(ctx context.Context) (*ProductListResult, error)
	GetProduct(ctx context.Context, productID int) (*core.Product, error)

	// Inventory
	CreateHarvestBatch(ctx context.Context, req CreateHarvestBatchRequest) (*core.InventoryLot, error)
	ListHarvestBatches(ctx context.Context, productID int) (*LotListResult, error)
	// GetStockLevels returns today's available stock per product, served from the
	// stock cache when a fresh snapshot exists.
	GetStockLevels(ctx context.Context) (*StockResult, error)

	// Reporting. Dates are YYYY-MM-DD.
	GetGrowerRevenue(ctx context.Context, growerID int, startDate, endDate string) (*core.GrowerRevenueReport, error)
	GetGrowerPerformance(ctx context.Context, growerID int) (*core.GrowerPerformance, error)
}

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (int, error)
	Complete(ctx context.Context, key string, orderID int) error
	Release(ctx context.Context, key string) error
}

// StockCache holds daily stock snapshots.
type StockCache interface {
	GetStock(ctx context.Context, day string, dst any) (bool, error)
	PutStock(ctx context.Context, day string, levels any) error
	InvalidateStock(ctx context.Context) error
}

// EventPublisher announces committed orders.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *core.Order) error
}
