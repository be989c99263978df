package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"growmart/internal/app"

	"github.com/shopspring/decimal"
)

// ErrUsage is returned for unknown commands or malformed arguments.
var ErrUsage = errors.New("usage")

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

// Commands lists the command names Run understands, for help output.
const Commands = "order, cart, get, pay, status, orders, products, stock, batches, harvest, revenue, performance"

// Run executes a one-shot CLI command. args[0] is the command name.
// Commands that take a JSON document read it from in.
func Run(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return usage("no command given; available: %s", Commands)
	}

	switch args[0] {
	case "order", "process", "o":
		// stdin: {"customer_id":1,"order_date":"2025-03-10","payment_mode":"cash",
		//         "items":[{"product_id":1,"quantity":"2.5"}],"idempotency_key":"..."}
		var body struct {
			CustomerID     int                  `json:"customer_id"`
			OrderDate      string               `json:"order_date"`
			PaymentMode    string               `json:"payment_mode"`
			Items          []app.OrderItemInput `json:"items"`
			IdempotencyKey string               `json:"idempotency_key"`
		}
		if err := json.NewDecoder(in).Decode(&body); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.ProcessOrder(ctx, app.ProcessOrderRequest{
			CustomerID:     body.CustomerID,
			OrderDate:      body.OrderDate,
			PaymentMode:    body.PaymentMode,
			Items:          body.Items,
			IdempotencyKey: body.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		if result.Replayed {
			fmt.Fprintln(out, "Order already placed under this idempotency key.")
		}
		PrintOrder(out, result.Order)

	case "cart":
		var body struct {
			CustomerID int                  `json:"customer_id"`
			OrderDate  string               `json:"order_date"`
			Items      []app.OrderItemInput `json:"items"`
		}
		if err := json.NewDecoder(in).Decode(&body); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.CreateOrder(ctx, app.CreateOrderRequest{CustomerID: body.CustomerID, OrderDate: body.OrderDate, Items: body.Items})
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "get", "g":
		id, err := intArg(args, 1, "get <order-id>")
		if err != nil {
			return err
		}
		result, err := svc.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "pay":
		if len(args) < 3 {
			return usage("pay <order-id> <cash|card|upi|bank_transfer>")
		}
		id, err := intArg(args, 1, "pay <order-id> <mode>")
		if err != nil {
			return err
		}
		result, err := svc.RecordPayment(ctx, id, args[2])
		if err != nil {
			return err
		}
		PrintOrder(out, result.Order)

	case "status":
		if len(args) < 3 {
			return usage("status <order-id> <pending|confirmed|delivered|cancelled>")
		}
		id, err := intArg(args, 1, "status <order-id> <status>")
		if err != nil {
			return err
		}
		result, err := svc.UpdateOrderStatus(ctx, id, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %d is now %s.\n", result.Order.ID, result.Order.Status)

	case "orders":
		id, err := intArg(args, 1, "orders <customer-id>")
		if err != nil {
			return err
		}
		result, err := svc.GetCustomerOrders(ctx, id)
		if err != nil {
			return err
		}
		printOrders(out, result)

	case "products", "prod":
		result, err := svc.ListProducts(ctx)
		if err != nil {
			return err
		}
		printProducts(out, result)

	case "stock", "s":
		result, err := svc.GetStockLevels(ctx)
		if err != nil {
			return err
		}
		printStock(out, result)

	case "batches":
		id, err := intArg(args, 1, "batches <product-id>")
		if err != nil {
			return err
		}
		result, err := svc.ListHarvestBatches(ctx, id)
		if err != nil {
			return err
		}
		printLots(out, result)

	case "harvest":
		if len(args) < 6 {
			return usage("harvest <product-id> <batch-no> <harvest-date> <expiry-date> <qty>")
		}
		id, err := intArg(args, 1, "harvest <product-id> ...")
		if err != nil {
			return err
		}
		qty, err := decimal.NewFromString(args[5])
		if err != nil {
			return usage("invalid quantity %q", args[5])
		}
		lot, err := svc.CreateHarvestBatch(ctx, app.CreateHarvestBatchRequest{
			ProductID:   id,
			BatchNo:     args[2],
			HarvestDate: args[3],
			ExpiryDate:  args[4],
			Quantity:    qty,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Batch %s recorded as lot %d (%s available).\n", lot.BatchNo, lot.ID, lot.QuantityAvailable.String())

	case "revenue", "rev":
		if len(args) < 4 {
			return usage("revenue <grower-id> <start YYYY-MM-DD> <end YYYY-MM-DD>")
		}
		id, err := intArg(args, 1, "revenue <grower-id> <start> <end>")
		if err != nil {
			return err
		}
		report, err := svc.GetGrowerRevenue(ctx, id, args[2], args[3])
		if err != nil {
			return err
		}
		printRevenue(out, report)

	case "performance", "perf":
		id, err := intArg(args, 1, "performance <grower-id>")
		if err != nil {
			return err
		}
		report, err := svc.GetGrowerPerformance(ctx, id)
		if err != nil {
			return err
		}
		printPerformance(out, report)

	default:
		return usage("unknown command %q; available: %s", args[0], Commands)
	}
	return nil
}

func intArg(args []string, i int, form string) (int, error) {
	if len(args) <= i {
		return 0, usage("%s", form)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, usage("%s: %q is not a valid id", form, args[i])
	}
	return n, nil
}
