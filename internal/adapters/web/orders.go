package web

import (
	"net/http"
	"strings"

	"growmart/internal/app"
	"growmart/internal/core"

	"github.com/shopspring/decimal"
)

type orderItemBody struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func toItemInputs(items []orderItemBody) []app.OrderItemInput {
	out := make([]app.OrderItemInput, len(items))
	for i, it := range items {
		out[i] = app.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

type orderResponse struct {
	*core.Order
	Replayed bool `json:"replayed,omitempty"`
}

// apiProcessOrder handles POST /api/orders/process.
// Body: { customer_id, order_date?, payment_mode, items: [{product_id, quantity}], idempotency_key? }
// The Idempotency-Key header takes precedence over the body field.
func (h *Handler) apiProcessOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID     int             `json:"customer_id"`
		OrderDate      string          `json:"order_date"`
		PaymentMode    string          `json:"payment_mode"`
		Items          []orderItemBody `json:"items"`
		IdempotencyKey string          `json:"idempotency_key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = body.IdempotencyKey
	}

	result, err := h.svc.ProcessOrder(r.Context(), app.ProcessOrderRequest{
		CustomerID:     body.CustomerID,
		OrderDate:      body.OrderDate,
		PaymentMode:    body.PaymentMode,
		Items:          toItemInputs(body.Items),
		IdempotencyKey: key,
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, orderResponse{Order: result.Order, Replayed: result.Replayed})
}

// apiCreateOrder handles POST /api/orders.
// Body: { customer_id, order_date?, items: [{product_id, quantity}] }
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID int             `json:"customer_id"`
		OrderDate  string          `json:"order_date"`
		Items      []orderItemBody `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		CustomerID: body.CustomerID,
		OrderDate:  body.OrderDate,
		Items:      toItemInputs(body.Items),
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusCreated, result.Order)
}

// apiGetOrder handles GET /api/orders/{id}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, result.Order)
}

// apiGetPayment handles GET /api/orders/{id}/payment.
func (h *Handler) apiGetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payment, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// apiRecordPayment handles POST /api/orders/{id}/payment.
// Body: { payment_mode }
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		PaymentMode string `json:"payment_mode"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.RecordPayment(r.Context(), id, body.PaymentMode)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, result.Order)
}

// apiCustomerOrders handles GET /api/customers/{id}/orders.
func (h *Handler) apiCustomerOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetCustomerOrders(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	orders := result.Orders
	if orders == nil {
		orders = []core.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// apiUpdateOrderStatus handles PUT /api/admin/orders/{id}/status.
// Body: { status }
func (h *Handler) apiUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Status) == "" {
		writeError(w, r, "status is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.UpdateOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, result.Order)
}
