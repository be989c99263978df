package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultShelfLifeDays is the expiry window given to lots materialized to cover a shortfall.
const DefaultShelfLifeDays = 30

// NewLotSpec describes a lot the allocator should materialize before debiting it.
type NewLotSpec struct {
	BatchNo     string
	HarvestDate time.Time
	ExpiryDate  time.Time
	Quantity    decimal.Decimal
}

// ShortfallPolicy decides what happens when eligible stock cannot cover a request.
// It returns the lot to create for the deficit, or an error to reject the allocation.
type ShortfallPolicy func(productID int, deficit decimal.Decimal, asOf time.Time) (*NewLotSpec, error)

// DefaultShortfallPolicy always materializes a lot carrying exactly the deficit,
// harvested on asOf and expiring shelfLifeDays later. Inventory is never the
// reason an order is rejected under this policy.
func DefaultShortfallPolicy(shelfLifeDays int) ShortfallPolicy {
	if shelfLifeDays <= 0 {
		shelfLifeDays = DefaultShelfLifeDays
	}
	return func(productID int, deficit decimal.Decimal, asOf time.Time) (*NewLotSpec, error) {
		day := truncateDay(asOf)
		return &NewLotSpec{
			BatchNo:     syntheticBatchNo(day),
			HarvestDate: day,
			ExpiryDate:  day.AddDate(0, 0, shelfLifeDays),
			Quantity:    deficit,
		}, nil
	}
}

// RejectShortfallPolicy refuses to fabricate stock.
func RejectShortfallPolicy(productID int, deficit decimal.Decimal, asOf time.Time) (*NewLotSpec, error) {
	return nil, newError(KindInsufficientStock,
		"insufficient stock for product %d: short by %s", productID, deficit.String())
}

func syntheticBatchNo(day time.Time) string {
	return "AUTO-" + day.Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

// PlannedDebit is one step of an allocation walk. Synthesized debits refer to
// AllocationPlan.Synthesized[SynthIndex]; the others to an existing lot ID.
type PlannedDebit struct {
	LotID       int
	BatchNo     string
	Synthesized bool
	SynthIndex  int
	Quantity    decimal.Decimal
}

// AllocationPlan is the outcome of PlanAllocation: lots to insert, then debits to apply in order.
type AllocationPlan struct {
	Synthesized []NewLotSpec
	Debits      []PlannedDebit
}

// Total returns the sum of all planned debits.
func (p *AllocationPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Debits {
		total = total.Add(d.Quantity)
	}
	return total
}

type candidate struct {
	lot        InventoryLot
	synthIndex int // -1 for existing lots
}

// PlanAllocation computes how quantity of productID is drawn from lots on asOf.
//
// Eligible lots (not expired, stock remaining) are consumed oldest harvest first,
// ties broken by batch number then ID. A product with no lots at all gets one lot
// for the full quantity from policy; any remaining deficit gets one more lot for
// exactly the missing amount. A remainder after the walk is reported as
// KindAllocationInconsistency rather than dropped.
func PlanAllocation(productID int, lots []InventoryLot, quantity decimal.Decimal, asOf time.Time, policy ShortfallPolicy) (*AllocationPlan, error) {
	if !quantity.IsPositive() {
		return nil, newError(KindInvalidOrder, "quantity for product %d must be positive, got %s", productID, quantity)
	}
	if !fitsQuantityScale(quantity) {
		return nil, newError(KindInvalidOrder, "quantity %s for product %d has more than %d decimal places", quantity, productID, QuantityScale)
	}
	if policy == nil {
		policy = DefaultShortfallPolicy(DefaultShelfLifeDays)
	}
	asOf = truncateDay(asOf)

	var eligible []candidate
	for _, l := range lots {
		if l.EligibleOn(asOf) {
			eligible = append(eligible, candidate{lot: l, synthIndex: -1})
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i].lot, eligible[j].lot
		if !a.HarvestDate.Equal(b.HarvestDate) {
			return a.HarvestDate.Before(b.HarvestDate)
		}
		if a.BatchNo != b.BatchNo {
			return a.BatchNo < b.BatchNo
		}
		return a.ID < b.ID
	})

	plan := &AllocationPlan{}
	synthesize := func(deficit decimal.Decimal) error {
		synth, err := policy(productID, deficit, asOf)
		if err != nil {
			return err
		}
		if synth == nil || !synth.Quantity.IsPositive() || !synth.ExpiryDate.After(asOf) {
			return nil
		}
		plan.Synthesized = append(plan.Synthesized, *synth)
		idx := len(plan.Synthesized) - 1
		eligible = append(eligible, candidate{
			lot: InventoryLot{
				ProductID:         productID,
				BatchNo:           synth.BatchNo,
				HarvestDate:       synth.HarvestDate,
				ExpiryDate:        synth.ExpiryDate,
				QuantityAvailable: synth.Quantity,
			},
			synthIndex: idx,
		})
		return nil
	}

	if len(lots) == 0 {
		if err := synthesize(quantity); err != nil {
			return nil, err
		}
	}

	available := decimal.Zero
	for _, c := range eligible {
		available = available.Add(c.lot.QuantityAvailable)
	}
	if available.LessThan(quantity) {
		if err := synthesize(quantity.Sub(available)); err != nil {
			return nil, err
		}
	}

	remaining := quantity
	for _, c := range eligible {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(c.lot.QuantityAvailable, remaining)
		if !take.IsPositive() {
			continue
		}
		plan.Debits = append(plan.Debits, PlannedDebit{
			LotID:       c.lot.ID,
			BatchNo:     c.lot.BatchNo,
			Synthesized: c.synthIndex >= 0,
			SynthIndex:  c.synthIndex,
			Quantity:    take,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, newError(KindAllocationInconsistency,
			"allocation for product %d left %s of %s unallocated after shortfall synthesis",
			productID, remaining.String(), quantity.String())
	}
	return plan, nil
}
