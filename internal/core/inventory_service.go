package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService owns harvest batches (inventory lots) and the FIFO allocation against them.
type InventoryService interface {
	// Standalone operations (manage their own connections).
	CreateLot(ctx context.Context, req CreateLotRequest) (*InventoryLot, error)
	ListLots(ctx context.Context, productID int) ([]InventoryLot, error)
	GetStockLevels(ctx context.Context, asOf time.Time) ([]StockLevel, error)
	GetAvailableQuantity(ctx context.Context, productID int, asOf time.Time) (decimal.Decimal, error)

	// TX-scoped operations: work within a caller-provided transaction.

	// Allocate locks the product's lots, materializes stock for any shortfall via the
	// configured ShortfallPolicy and debits lots oldest harvest first.
	Allocate(ctx context.Context, tx pgx.Tx, productID int, quantity decimal.Decimal, asOf time.Time) ([]LotDebit, error)
}

type inventoryService struct {
	pool   *pgxpool.Pool
	policy ShortfallPolicy
}

// NewInventoryService builds an InventoryService. A nil policy means DefaultShortfallPolicy.
func NewInventoryService(pool *pgxpool.Pool, policy ShortfallPolicy) InventoryService {
	if policy == nil {
		policy = DefaultShortfallPolicy(DefaultShelfLifeDays)
	}
	return &inventoryService{pool: pool, policy: policy}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) CreateLot(ctx context.Context, req CreateLotRequest) (*InventoryLot, error) {
	req.BatchNo = strings.TrimSpace(req.BatchNo)
	if req.BatchNo == "" {
		return nil, newError(KindInvalidOrder, "batch number is required")
	}
	if !req.QuantityAvailable.IsPositive() {
		return nil, newError(KindInvalidOrder, "batch quantity must be positive, got %s", req.QuantityAvailable)
	}
	if !fitsQuantityScale(req.QuantityAvailable) {
		return nil, newError(KindInvalidOrder, "batch quantity %s has more than %d decimal places", req.QuantityAvailable, QuantityScale)
	}
	if req.HarvestDate.IsZero() || req.ExpiryDate.IsZero() {
		return nil, newError(KindInvalidOrder, "harvest and expiry dates are required")
	}
	harvest, expiry := truncateDay(req.HarvestDate), truncateDay(req.ExpiryDate)
	if !expiry.After(harvest) {
		return nil, newError(KindInvalidOrder, "expiry date %s must be after harvest date %s",
			expiry.Format(dateLayout), harvest.Format(dateLayout))
	}

	if _, err := resolveProduct(ctx, s.pool, req.ProductID); err != nil {
		return nil, err
	}

	var lot InventoryLot
	err := s.pool.QueryRow(ctx, `
		INSERT INTO harvest_batches (product_id, batch_no, harvest_date, expiry_date, quantity_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, product_id, batch_no, harvest_date, expiry_date, quantity_available
	`, req.ProductID, req.BatchNo, harvest, expiry, req.QuantityAvailable).Scan(
		&lot.ID, &lot.ProductID, &lot.BatchNo, &lot.HarvestDate, &lot.ExpiryDate, &lot.QuantityAvailable,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, newError(KindInvalidOrder, "batch %s already exists for product %d", req.BatchNo, req.ProductID)
		}
		return nil, persistenceError(err, "failed to create harvest batch")
	}
	return &lot, nil
}

func (s *inventoryService) ListLots(ctx context.Context, productID int) ([]InventoryLot, error) {
	if _, err := resolveProduct(ctx, s.pool, productID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, batch_no, harvest_date, expiry_date, quantity_available
		FROM harvest_batches
		WHERE product_id = $1
		ORDER BY harvest_date, batch_no, id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest batches: %w", err)
	}
	lots, err := scanLots(rows)
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (s *inventoryService) GetStockLevels(ctx context.Context, asOf time.Time) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name,
		       COALESCE(SUM(hb.quantity_available) FILTER (WHERE hb.expiry_date > $1), 0),
		       COUNT(hb.id) FILTER (WHERE hb.expiry_date > $1 AND hb.quantity_available > 0)
		FROM products p
		LEFT JOIN harvest_batches hb ON hb.product_id = p.id
		GROUP BY p.id, p.name
		ORDER BY p.id
	`, truncateDay(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.ProductID, &sl.ProductName, &sl.Available, &sl.ActiveLots); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock levels: %w", err)
	}
	return levels, nil
}

func (s *inventoryService) GetAvailableQuantity(ctx context.Context, productID int, asOf time.Time) (decimal.Decimal, error) {
	if _, err := resolveProduct(ctx, s.pool, productID); err != nil {
		return decimal.Zero, err
	}
	var available decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_available), 0)
		FROM harvest_batches
		WHERE product_id = $1 AND expiry_date > $2
	`, productID, truncateDay(asOf)).Scan(&available)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum available quantity: %w", err)
	}
	return available, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *inventoryService) Allocate(ctx context.Context, tx pgx.Tx, productID int, quantity decimal.Decimal, asOf time.Time) ([]LotDebit, error) {
	asOf = truncateDay(asOf)

	// Lock every lot of the product so concurrent orders serialize on it.
	rows, err := tx.Query(ctx, `
		SELECT id, product_id, batch_no, harvest_date, expiry_date, quantity_available
		FROM harvest_batches
		WHERE product_id = $1
		ORDER BY harvest_date, batch_no, id
		FOR UPDATE
	`, productID)
	if err != nil {
		return nil, persistenceError(err, "failed to lock harvest batches for product %d", productID)
	}
	lots, err := scanLots(rows)
	if err != nil {
		return nil, persistenceError(err, "failed to read harvest batches for product %d", productID)
	}

	plan, err := PlanAllocation(productID, lots, quantity, asOf, s.policy)
	if err != nil {
		if IsKind(err, KindAllocationInconsistency) {
			slog.Error("allocation left a remainder", "product_id", productID,
				"quantity", quantity.String(), "as_of", asOf.Format(dateLayout), "error", err)
		}
		return nil, err
	}

	synthIDs := make([]int, len(plan.Synthesized))
	for i, synth := range plan.Synthesized {
		if err := tx.QueryRow(ctx, `
			INSERT INTO harvest_batches (product_id, batch_no, harvest_date, expiry_date, quantity_available)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, productID, synth.BatchNo, synth.HarvestDate, synth.ExpiryDate, synth.Quantity).Scan(&synthIDs[i]); err != nil {
			return nil, persistenceError(err, "failed to create harvest batch %s", synth.BatchNo)
		}
		slog.Info("harvest batch auto-provisioned", "product_id", productID,
			"batch_no", synth.BatchNo, "quantity", synth.Quantity.String())
	}

	debits := make([]LotDebit, 0, len(plan.Debits))
	for _, d := range plan.Debits {
		lotID := d.LotID
		if d.Synthesized {
			lotID = synthIDs[d.SynthIndex]
		}
		tag, err := tx.Exec(ctx, `
			UPDATE harvest_batches
			SET quantity_available = quantity_available - $2
			WHERE id = $1 AND quantity_available >= $2
		`, lotID, d.Quantity)
		if err != nil {
			return nil, persistenceError(err, "failed to debit harvest batch %d", lotID)
		}
		if tag.RowsAffected() != 1 {
			return nil, newError(KindPersistenceFailure,
				"harvest batch %d no longer holds %s for product %d", lotID, d.Quantity, productID)
		}
		debits = append(debits, LotDebit{LotID: lotID, BatchNo: d.BatchNo, Quantity: d.Quantity})
	}
	return debits, nil
}

func scanLots(rows pgx.Rows) ([]InventoryLot, error) {
	defer rows.Close()
	var lots []InventoryLot
	for rows.Next() {
		var l InventoryLot
		if err := rows.Scan(&l.ID, &l.ProductID, &l.BatchNo, &l.HarvestDate, &l.ExpiryDate, &l.QuantityAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan harvest batch: %w", err)
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read harvest batches: %w", err)
	}
	return lots, nil
}
