package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order header.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentMode is how a customer paid for an order.
type PaymentMode string

const (
	PaymentCash         PaymentMode = "cash"
	PaymentCard         PaymentMode = "card"
	PaymentUPI          PaymentMode = "upi"
	PaymentBankTransfer PaymentMode = "bank_transfer"
)

// Valid reports whether m is one of the supported payment modes.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer:
		return true
	}
	return false
}

const PaymentStatusCompleted = "completed"

// Grower owns products and the harvest batches behind them.
type Grower struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ContactNo string    `json:"contact_no"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer places orders.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ContactNo string    `json:"contact_no"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog entry. UnitPrice is the current catalog price and is
// read fresh for every allocation.
type Product struct {
	ID         int             `json:"id"`
	GrowerID   int             `json:"grower_id"`
	GrowerName string          `json:"grower_name,omitempty"` // joined from growers
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Available  decimal.Decimal `json:"available"` // sum over non-expired lots
	CreatedAt  time.Time       `json:"created_at"`
}

// InventoryLot is a harvest batch: a dated, quantity-bounded slice of stock for one product.
type InventoryLot struct {
	ID                int             `json:"id"`
	ProductID         int             `json:"product_id"`
	BatchNo           string          `json:"batch_no"`
	HarvestDate       time.Time       `json:"harvest_date"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
}

// EligibleOn reports whether the lot can serve an allocation on asOf.
func (l InventoryLot) EligibleOn(asOf time.Time) bool {
	return l.ExpiryDate.After(asOf) && l.QuantityAvailable.IsPositive()
}

// LotDebit records how much of a lot was consumed by one order line.
type LotDebit struct {
	LotID    int             `json:"lot_id"`
	BatchNo  string          `json:"batch_no"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Order is an order header with its lines and payment.
type Order struct {
	ID          int             `json:"id"`
	OrderDate   string          `json:"order_date"` // YYYY-MM-DD
	CustomerID  int             `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	Lines       []OrderLine     `json:"lines"`
	Payment     *Payment        `json:"payment,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderLine is one priced line of an order.
type OrderLine struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	LineNumber  int             `json:"line_number"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"` // joined from products
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Debits      []LotDebit      `json:"debits,omitempty"`
}

// Payment is the single payment captured for an order.
type Payment struct {
	ID      int             `json:"id"`
	OrderID int             `json:"order_id"`
	Mode    PaymentMode     `json:"mode"`
	Status  string          `json:"status"`
	Amount  decimal.Decimal `json:"amount"`
	PaidAt  time.Time       `json:"paid_at"`
}

// LineItemInput is one requested (product, quantity) pair.
type LineItemInput struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ProcessOrderRequest is the input to the transactional checkout.
type ProcessOrderRequest struct {
	CustomerID  int
	OrderDate   time.Time
	PaymentMode PaymentMode
	Items       []LineItemInput
}

// CreateLotRequest is a grower-declared harvest batch.
type CreateLotRequest struct {
	ProductID         int
	BatchNo           string
	HarvestDate       time.Time
	ExpiryDate        time.Time
	QuantityAvailable decimal.Decimal
}

// StockLevel is the storefront view of available stock for a product.
type StockLevel struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Available   decimal.Decimal `json:"available"`
	ActiveLots  int             `json:"active_lots"`
}

const dateLayout = "2006-01-02"

// QuantityScale is the number of decimal places stored for quantities.
const QuantityScale = 3

func fitsQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// truncateDay drops the clock component so date comparisons match DATE columns.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
