package app

import "github.com/shopspring/decimal"

// ProcessOrderRequest is the input for the transactional checkout.
type ProcessOrderRequest struct {
	CustomerID     int
	OrderDate      string // YYYY-MM-DD; empty means today
	PaymentMode    string
	Items          []OrderItemInput
	IdempotencyKey string
}

// OrderItemInput is a single (product, quantity) pair within an order request.
type OrderItemInput struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest is the input for creating a pending cart order.
type CreateOrderRequest struct {
	CustomerID int
	OrderDate  string
	Items      []OrderItemInput
}

type CreateGrowerRequest struct {
	Name      string
	ContactNo string
	Address   string
}

type CreateCustomerRequest struct {
	Name      string
	Email     string
	ContactNo string
	Address   string
}

type CreateProductRequest struct {
	GrowerID  int
	Name      string
	Category  string
	UnitPrice decimal.Decimal
}

type UpdatePriceRequest struct {
	ProductID int
	UnitPrice decimal.Decimal
}

// CreateHarvestBatchRequest is a grower-declared lot. Dates are YYYY-MM-DD.
type CreateHarvestBatchRequest struct {
	ProductID   int
	BatchNo     string
	HarvestDate string
	ExpiryDate  string
	Quantity    decimal.Decimal
}
