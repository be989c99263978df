package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"growmart/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Catalog ───────────────────────────────────────────────────────────
		r.Post("/api/growers", h.apiCreateGrower)
		r.Post("/api/customers", h.apiCreateCustomer)
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products", h.apiCreateProduct)
		r.Get("/api/products/{id}", h.apiGetProduct)
		r.Put("/api/products/{id}/price", h.apiUpdatePrice)

		// ── Inventory ─────────────────────────────────────────────────────────
		r.Post("/api/harvest-batches", h.apiCreateHarvestBatch)
		r.Get("/api/products/{id}/batches", h.apiListHarvestBatches)
		r.Get("/api/stock", h.apiStockLevels)

		// ── Orders ────────────────────────────────────────────────────────────
		r.Post("/api/orders/process", h.apiProcessOrder)
		r.Post("/api/orders", h.apiCreateOrder)
		r.Get("/api/orders/{id}", h.apiGetOrder)
		r.Get("/api/orders/{id}/payment", h.apiGetPayment)
		r.Post("/api/orders/{id}/payment", h.apiRecordPayment)
		r.Get("/api/customers/{id}/orders", h.apiCustomerOrders)
		r.Put("/api/admin/orders/{id}/status", h.apiUpdateOrderStatus)

		// ── Reporting ─────────────────────────────────────────────────────────
		r.Get("/api/growers/{id}/revenue", h.apiGrowerRevenue)
		r.Get("/api/growers/{id}/performance", h.apiGrowerPerformance)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID extracts a positive integer URL parameter. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+": must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
