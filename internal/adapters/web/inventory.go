package web

import (
	"net/http"

	"growmart/internal/app"
	"growmart/internal/core"

	"github.com/shopspring/decimal"
)

// apiCreateHarvestBatch handles POST /api/harvest-batches.
// Body: { product_id, batch_no, harvest_date, expiry_date, quantity }
func (h *Handler) apiCreateHarvestBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID   int             `json:"product_id"`
		BatchNo     string          `json:"batch_no"`
		HarvestDate string          `json:"harvest_date"`
		ExpiryDate  string          `json:"expiry_date"`
		Quantity    decimal.Decimal `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	lot, err := h.svc.CreateHarvestBatch(r.Context(), app.CreateHarvestBatchRequest{
		ProductID:   body.ProductID,
		BatchNo:     body.BatchNo,
		HarvestDate: body.HarvestDate,
		ExpiryDate:  body.ExpiryDate,
		Quantity:    body.Quantity,
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

// apiListHarvestBatches handles GET /api/products/{id}/batches.
func (h *Handler) apiListHarvestBatches(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ListHarvestBatches(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	lots := result.Lots
	if lots == nil {
		lots = []core.InventoryLot{}
	}
	writeJSON(w, http.StatusOK, lots)
}

// apiStockLevels handles GET /api/stock.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockLevels(r.Context())
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	levels := result.Levels
	if levels == nil {
		levels = []core.StockLevel{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_of":  result.AsOf,
		"cached": result.Cached,
		"levels": levels,
	})
}
