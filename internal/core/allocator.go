package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AllocatedLine is a priced line item together with the lots that served it.
type AllocatedLine struct {
	ProductID   int
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	Debits      []LotDebit
}

// LineAllocator prices a line item and draws its quantity from inventory.
type LineAllocator struct {
	inventory InventoryService
}

func NewLineAllocator(inventory InventoryService) *LineAllocator {
	return &LineAllocator{inventory: inventory}
}

// PriceAndAllocate resolves the current unit price and allocates quantity inside tx.
// A pricing failure is returned before any inventory is touched.
func (a *LineAllocator) PriceAndAllocate(ctx context.Context, tx pgx.Tx, productID int, quantity decimal.Decimal, asOf time.Time) (*AllocatedLine, error) {
	product, err := resolveProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	debits, err := a.inventory.Allocate(ctx, tx, productID, quantity, asOf)
	if err != nil {
		return nil, err
	}
	return &AllocatedLine{
		ProductID:   productID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.UnitPrice,
		Subtotal:    product.UnitPrice.Mul(quantity).Round(2),
		Debits:      debits,
	}, nil
}
