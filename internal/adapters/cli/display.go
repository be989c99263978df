package cli

import (
	"fmt"
	"io"
	"strings"

	"growmart/internal/app"
	"growmart/internal/core"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

// PrintOrder renders an order with its lines, lot debits and payment.
func PrintOrder(w io.Writer, o *core.Order) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  ORDER #%d   %s   customer %d   %s\n", o.ID, o.OrderDate, o.CustomerID, strings.ToUpper(string(o.Status)))
	rule(w, "=", 72)
	fmt.Fprintf(w, "  %-3s %-24s %10s %12s %14s\n", "#", "PRODUCT", "QTY", "UNIT PRICE", "SUBTOTAL")
	rule(w, "-", 72)
	for _, l := range o.Lines {
		name := l.ProductName
		if name == "" {
			name = fmt.Sprintf("product %d", l.ProductID)
		}
		fmt.Fprintf(w, "  %-3d %-24s %10s %12s %14s\n",
			l.LineNumber, name, l.Quantity.String(), l.UnitPrice.StringFixed(2), l.Subtotal.StringFixed(2))
		for _, d := range l.Debits {
			fmt.Fprintf(w, "        lot %-6d %-20s %10s\n", d.LotID, d.BatchNo, d.Quantity.String())
		}
	}
	rule(w, "-", 72)
	fmt.Fprintf(w, "  %-52s %14s\n", "TOTAL", o.TotalAmount.StringFixed(2))
	if o.Payment != nil {
		fmt.Fprintf(w, "  Paid %s by %s (%s)\n", o.Payment.Amount.StringFixed(2), o.Payment.Mode, o.Payment.Status)
	}
	rule(w, "=", 72)
}

func printOrders(w io.Writer, result *app.OrderListResult) {
	fmt.Fprintln(w)
	rule(w, "=", 60)
	fmt.Fprintf(w, "  ORDERS  customer %d\n", result.CustomerID)
	rule(w, "=", 60)
	if len(result.Orders) == 0 {
		fmt.Fprintln(w, "  No orders found.")
		rule(w, "=", 60)
		return
	}
	fmt.Fprintf(w, "  %-8s %-12s %-12s %14s\n", "ID", "DATE", "STATUS", "TOTAL")
	rule(w, "-", 60)
	for _, o := range result.Orders {
		fmt.Fprintf(w, "  %-8d %-12s %-12s %14s\n", o.ID, o.OrderDate, o.Status, o.TotalAmount.StringFixed(2))
	}
	rule(w, "=", 60)
}

func printProducts(w io.Writer, result *app.ProductListResult) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintln(w, "  PRODUCTS")
	rule(w, "=", 72)
	if len(result.Products) == 0 {
		fmt.Fprintln(w, "  No products found.")
		rule(w, "=", 72)
		return
	}
	fmt.Fprintf(w, "  %-5s %-22s %-18s %12s %10s\n", "ID", "NAME", "GROWER", "UNIT PRICE", "AVAILABLE")
	rule(w, "-", 72)
	for _, p := range result.Products {
		fmt.Fprintf(w, "  %-5d %-22s %-18s %12s %10s\n",
			p.ID, p.Name, p.GrowerName, p.UnitPrice.StringFixed(2), p.Available.String())
	}
	rule(w, "=", 72)
}

func printStock(w io.Writer, result *app.StockResult) {
	fmt.Fprintln(w)
	rule(w, "=", 60)
	label := "  STOCK LEVELS as of " + result.AsOf
	if result.Cached {
		label += " (cached)"
	}
	fmt.Fprintln(w, label)
	rule(w, "=", 60)
	if len(result.Levels) == 0 {
		fmt.Fprintln(w, "  No stock found.")
		rule(w, "=", 60)
		return
	}
	fmt.Fprintf(w, "  %-5s %-28s %12s %8s\n", "ID", "PRODUCT", "AVAILABLE", "LOTS")
	rule(w, "-", 60)
	for _, l := range result.Levels {
		fmt.Fprintf(w, "  %-5d %-28s %12s %8d\n", l.ProductID, l.ProductName, l.Available.String(), l.ActiveLots)
	}
	rule(w, "=", 60)
}

func printLots(w io.Writer, result *app.LotListResult) {
	fmt.Fprintln(w)
	rule(w, "=", 66)
	fmt.Fprintf(w, "  HARVEST BATCHES  product %d\n", result.ProductID)
	rule(w, "=", 66)
	if len(result.Lots) == 0 {
		fmt.Fprintln(w, "  No batches found.")
		rule(w, "=", 66)
		return
	}
	fmt.Fprintf(w, "  %-6s %-24s %-11s %-11s %9s\n", "ID", "BATCH", "HARVESTED", "EXPIRES", "QTY")
	rule(w, "-", 66)
	for _, l := range result.Lots {
		fmt.Fprintf(w, "  %-6d %-24s %-11s %-11s %9s\n", l.ID, l.BatchNo,
			l.HarvestDate.Format("2006-01-02"), l.ExpiryDate.Format("2006-01-02"), l.QuantityAvailable.String())
	}
	rule(w, "=", 66)
}

func printRevenue(w io.Writer, r *core.GrowerRevenueReport) {
	fmt.Fprintf(w, "Grower %d revenue %s .. %s: %s\n", r.GrowerID, r.From, r.To, r.TotalRevenue.StringFixed(2))
}

func printPerformance(w io.Writer, p *core.GrowerPerformance) {
	fmt.Fprintln(w)
	rule(w, "=", 50)
	fmt.Fprintf(w, "  GROWER %d  %s\n", p.GrowerID, p.GrowerName)
	rule(w, "=", 50)
	fmt.Fprintf(w, "  %-26s %20d\n", "Products", p.TotalProducts)
	fmt.Fprintf(w, "  %-26s %20d\n", "Orders", p.TotalOrders)
	fmt.Fprintf(w, "  %-26s %20s\n", "Revenue", p.TotalRevenue.StringFixed(2))
	fmt.Fprintf(w, "  %-26s %20s\n", "Average order value", p.AverageOrderValue.StringFixed(2))
	fmt.Fprintf(w, "  %-26s %20s\n", "Available quantity", p.AvailableQuantity.String())
	fmt.Fprintf(w, "  %-26s %20d\n", "Active batches", p.ActiveBatches)
	fmt.Fprintf(w, "  %-26s %19s%%\n", "Delivery success", p.DeliverySuccessRate.StringFixed(2))
	if p.LastOrderDate != nil {
		fmt.Fprintf(w, "  %-26s %20s\n", "Last order", *p.LastOrderDate)
	}
	rule(w, "=", 50)
}
