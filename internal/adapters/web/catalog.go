package web

import (
	"net/http"

	"growmart/internal/app"
	"growmart/internal/core"

	"github.com/shopspring/decimal"
)

// apiCreateGrower handles POST /api/growers.
// Body: { name, contact_no?, address? }
func (h *Handler) apiCreateGrower(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		ContactNo string `json:"contact_no"`
		Address   string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	grower, err := h.svc.CreateGrower(r.Context(), app.CreateGrowerRequest{
		Name:      body.Name,
		ContactNo: body.ContactNo,
		Address:   body.Address,
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusCreated, grower)
}

// apiCreateCustomer handles POST /api/customers.
// Body: { name, email, contact_no?, address? }
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		ContactNo string `json:"contact_no"`
		Address   string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), app.CreateCustomerRequest{
		Name:      body.Name,
		Email:     body.Email,
		ContactNo: body.ContactNo,
		Address:   body.Address,
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	products := result.Products
	if products == nil {
		products = []core.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// apiGetProduct handles GET /api/products/{id}.
func (h *Handler) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// apiCreateProduct handles POST /api/products.
// Body: { grower_id, name, category?, unit_price }
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GrowerID  int             `json:"grower_id"`
		Name      string          `json:"name"`
		Category  string          `json:"category"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), app.CreateProductRequest{
		GrowerID:  body.GrowerID,
		Name:      body.Name,
		Category:  body.Category,
		UnitPrice: body.UnitPrice,
	})
	if err != nil {
		writeServiceError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// apiUpdatePrice handles PUT /api/products/{id}/price.
// Body: { unit_price }
func (h *Handler) apiUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	product, err := h.svc.UpdateProductPrice(r.Context(), app.UpdatePriceRequest{ProductID: id, UnitPrice: body.UnitPrice})
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
