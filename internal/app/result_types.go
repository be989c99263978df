package app

import "growmart/internal/core"

// OrderResult is returned by order operations. Replayed is set when an
// idempotency key matched an earlier order and no new order was placed.
type OrderResult struct {
	Order    *core.Order
	Replayed bool
}

// OrderListResult is returned by GetCustomerOrders.
type OrderListResult struct {
	CustomerID int
	Orders     []core.Order
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// LotListResult is returned by ListHarvestBatches.
type LotListResult struct {
	ProductID int
	Lots      []core.InventoryLot
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	AsOf   string
	Levels []core.StockLevel
	Cached bool
}
