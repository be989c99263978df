package cache

import "time"

const (
	// Idempotent checkout: idem:order:process:{key} -> order_id, or "pending" while in flight
	KeyIdemProcessOrder = "idem:order:process:%s"

	// Storefront stock: stock:levels:{YYYY-MM-DD} -> JSON []core.StockLevel
	KeyStockLevels = "stock:levels:%s"
	stockPattern   = "stock:levels:*"

	// Event dedup per consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLInFlight    = time.Minute
	TTLStockCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
