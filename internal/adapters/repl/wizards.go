package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"growmart/internal/adapters/cli"
	"growmart/internal/app"

	"github.com/shopspring/decimal"
)

// handleNewOrder runs an interactive order placement session.
func handleNewOrder(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, customerArg string) error {
	customerID, err := strconv.Atoi(customerArg)
	if err != nil || customerID <= 0 {
		fmt.Fprintf(out, "Invalid customer id: %s\n", customerArg)
		return nil
	}

	fmt.Fprintf(out, "Creating order for customer %d\n", customerID)
	fmt.Fprintln(out, "Enter order lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <product-id> <quantity>")
	fmt.Fprintln(out, "  Example: 1 2.5")

	var items []app.OrderItemInput
	lineNum := 1
	for {
		fmt.Fprintf(out, "  Line %d: ", lineNum)
		raw, rerr := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") || (rerr != nil && raw == "") {
			fmt.Fprintln(out, "Order cancelled.")
			return nil
		}
		if strings.EqualFold(raw, "done") {
			break
		}
		if raw == "" {
			continue
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 {
			fmt.Fprintln(out, "  Invalid format. Use: <product-id> <quantity>")
			continue
		}
		productID, err := strconv.Atoi(parts[0])
		if err != nil || productID <= 0 {
			fmt.Fprintln(out, "  Invalid product id.")
			continue
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil || !qty.IsPositive() {
			fmt.Fprintln(out, "  Invalid quantity.")
			continue
		}
		items = append(items, app.OrderItemInput{ProductID: productID, Quantity: qty})
		lineNum++
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No lines entered. Order not placed.")
		return nil
	}

	fmt.Fprint(out, "Order date (YYYY-MM-DD, leave blank for today): ")
	orderDate, _ := reader.ReadString('\n')

	fmt.Fprint(out, "Payment mode [cash]: ")
	mode, _ := reader.ReadString('\n')
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = "cash"
	}

	result, err := svc.ProcessOrder(ctx, app.ProcessOrderRequest{
		CustomerID:  customerID,
		OrderDate:   strings.TrimSpace(orderDate),
		PaymentMode: mode,
		Items:       items,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nOrder placed (ID: %d, Status: %s)\n", result.Order.ID, strings.ToUpper(string(result.Order.Status)))
	cli.PrintOrder(out, result.Order)
	return nil
}
