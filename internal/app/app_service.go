package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"growmart/internal/cache"
	"growmart/internal/core"
)

const dateLayout = "2006-01-02"

type appService struct {
	orders    core.OrderService
	inventory core.InventoryService
	catalog   core.CatalogService
	reports   core.ReportingService

	idem   IdempotencyStore
	stock  StockCache
	events EventPublisher
	now    func() time.Time
}

// Option configures optional collaborators of the application service.
type Option func(*appService)

func WithIdempotency(store IdempotencyStore) Option { return func(s *appService) { s.idem = store } }
func WithStockCache(cache StockCache) Option        { return func(s *appService) { s.stock = cache } }
func WithEvents(pub EventPublisher) Option          { return func(s *appService) { s.events = pub } }
func WithClock(now func() time.Time) Option         { return func(s *appService) { s.now = now } }

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orders core.OrderService,
	inventory core.InventoryService,
	catalog core.CatalogService,
	reports core.ReportingService,
	opts ...Option,
) ApplicationService {
	s := &appService{
		orders:    orders,
		inventory: inventory,
		catalog:   catalog,
		reports:   reports,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShortfallPolicy selects how allocation covers missing stock.
func ShortfallPolicy(autoProvision bool, shelfLifeDays int) core.ShortfallPolicy {
	if !autoProvision {
		return core.RejectShortfallPolicy
	}
	return core.DefaultShortfallPolicy(shelfLifeDays)
}

func invalid(format string, args ...any) error {
	return &core.OrderError{Kind: core.KindInvalidOrder, Message: fmt.Sprintf(format, args...)}
}

// parseDate parses YYYY-MM-DD; an empty string yields today.
func (s *appService) parseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return s.now(), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, invalid("%s must be YYYY-MM-DD, got %q", field, v)
	}
	return t, nil
}

func toLineItems(items []OrderItemInput) []core.LineItemInput {
	out := make([]core.LineItemInput, len(items))
	for i, it := range items {
		out[i] = core.LineItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*OrderResult, error) {
	orderDate, err := s.parseDate("order_date", req.OrderDate)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	useKey := key != "" && s.idem != nil
	if useKey {
		existing, err := s.idem.Claim(ctx, key)
		if err != nil {
			if errors.Is(err, cache.ErrInFlight) {
				return nil, &core.OrderError{Kind: core.KindDuplicateRequest, Message: "an order with this idempotency key is already being processed", Err: err}
			}
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing > 0 {
			order, err := s.orders.GetOrder(ctx, existing)
			if err != nil {
				return nil, err
			}
			slog.Info("idempotent replay", "order_id", existing)
			return &OrderResult{Order: order, Replayed: true}, nil
		}
	}

	order, err := s.orders.ProcessOrder(ctx, core.ProcessOrderRequest{
		CustomerID:  req.CustomerID,
		OrderDate:   orderDate,
		PaymentMode: core.PaymentMode(strings.ToLower(strings.TrimSpace(req.PaymentMode))),
		Items:       toLineItems(req.Items),
	})
	if err != nil {
		if useKey {
			if rerr := s.idem.Release(ctx, key); rerr != nil {
				slog.Warn("failed to release idempotency key", "error", rerr)
			}
		}
		return nil, err
	}

	if useKey {
		if err := s.idem.Complete(ctx, key, order.ID); err != nil {
			slog.Error("failed to record idempotency key", "order_id", order.ID, "error", err)
		}
	}
	s.invalidateStock(ctx)
	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			slog.Error("failed to publish order placed", "order_id", order.ID, "error", err)
		}
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	orderDate, err := s.parseDate("order_date", req.OrderDate)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateOrder(ctx, req.CustomerID, orderDate, toLineItems(req.Items))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) RecordPayment(ctx context.Context, orderID int, mode string) (*OrderResult, error) {
	order, err := s.orders.RecordPayment(ctx, orderID, core.PaymentMode(strings.ToLower(strings.TrimSpace(mode))))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error) {
	order, err := s.orders.UpdateStatus(ctx, orderID, core.OrderStatus(strings.ToLower(strings.TrimSpace(status))))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetCustomerOrders(ctx context.Context, customerID int) (*OrderListResult, error) {
	orders, err := s.orders.GetCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{CustomerID: customerID, Orders: orders}, nil
}

func (s *appService) GetPayment(ctx context.Context, orderID int) (*core.Payment, error) {
	return s.orders.GetPayment(ctx, orderID)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) CreateGrower(ctx context.Context, req CreateGrowerRequest) (*core.Grower, error) {
	return s.catalog.CreateGrower(ctx, req.Name, req.ContactNo, req.Address)
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	return s.catalog.CreateCustomer(ctx, req.Name, req.Email, req.ContactNo, req.Address)
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	return s.catalog.CreateProduct(ctx, req.GrowerID, req.Name, req.Category, req.UnitPrice)
}

func (s *appService) UpdateProductPrice(ctx context.Context, req UpdatePriceRequest) (*core.Product, error) {
	return s.catalog.UpdateProductPrice(ctx, req.ProductID, req.UnitPrice)
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.catalog.GetProducts(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetProduct(ctx context.Context, productID int) (*core.Product, error) {
	return s.catalog.GetProduct(ctx, productID, s.now())
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) CreateHarvestBatch(ctx context.Context, req CreateHarvestBatchRequest) (*core.InventoryLot, error) {
	harvest, err := s.parseDate("harvest_date", req.HarvestDate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ExpiryDate) == "" {
		return nil, invalid("expiry_date is required")
	}
	expiry, err := s.parseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	lot, err := s.inventory.CreateLot(ctx, core.CreateLotRequest{
		ProductID:         req.ProductID,
		BatchNo:           req.BatchNo,
		HarvestDate:       harvest,
		ExpiryDate:        expiry,
		QuantityAvailable: req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx)
	return lot, nil
}

func (s *appService) ListHarvestBatches(ctx context.Context, productID int) (*LotListResult, error) {
	lots, err := s.inventory.ListLots(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &LotListResult{ProductID: productID, Lots: lots}, nil
}

func (s *appService) GetStockLevels(ctx context.Context) (*StockResult, error) {
	now := s.now()
	day := now.Format(dateLayout)

	if s.stock != nil {
		var cached []core.StockLevel
		hit, err := s.stock.GetStock(ctx, day, &cached)
		if err != nil {
			slog.Warn("stock cache read failed", "error", err)
		} else if hit {
			return &StockResult{AsOf: day, Levels: cached, Cached: true}, nil
		}
	}

	levels, err := s.inventory.GetStockLevels(ctx, now)
	if err != nil {
		return nil, err
	}
	if s.stock != nil {
		if err := s.stock.PutStock(ctx, day, levels); err != nil {
			slog.Warn("stock cache write failed", "error", err)
		}
	}
	return &StockResult{AsOf: day, Levels: levels}, nil
}

func (s *appService) invalidateStock(ctx context.Context) {
	if s.stock == nil {
		return
	}
	if err := s.stock.InvalidateStock(ctx); err != nil {
		slog.Warn("stock cache invalidation failed", "error", err)
	}
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetGrowerRevenue(ctx context.Context, growerID int, startDate, endDate string) (*core.GrowerRevenueReport, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return nil, invalid("start and end dates are required")
	}
	from, err := s.parseDate("start", startDate)
	if err != nil {
		return nil, err
	}
	to, err := s.parseDate("end", endDate)
	if err != nil {
		return nil, err
	}
	return s.reports.GrowerRevenue(ctx, growerID, from, to)
}

func (s *appService) GetGrowerPerformance(ctx context.Context, growerID int) (*core.GrowerPerformance, error) {
	return s.reports.GrowerPerformance(ctx, growerID, s.now())
}
