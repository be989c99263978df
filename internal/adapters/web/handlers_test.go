package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"growmart/internal/app"
	"growmart/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService implements only what the tests exercise; any other call panics
// through the nil embedded interface and is caught by Recoverer.
type stubService struct {
	app.ApplicationService
	lastProcess app.ProcessOrderRequest
	processErr  error
	replayed    bool
	getErr      error
	statusErr   error
	revenueArgs [2]string
}

func (s *stubService) ProcessOrder(_ context.Context, req app.ProcessOrderRequest) (*app.OrderResult, error) {
	s.lastProcess = req
	if s.processErr != nil {
		return nil, s.processErr
	}
	return &app.OrderResult{
		Order:    &core.Order{ID: 9, CustomerID: req.CustomerID, Status: core.OrderStatusConfirmed, TotalAmount: decimal.RequireFromString("80.00")},
		Replayed: s.replayed,
	}, nil
}

func (s *stubService) GetOrder(_ context.Context, id int) (*app.OrderResult, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &app.OrderResult{Order: &core.Order{ID: id}}, nil
}

func (s *stubService) UpdateOrderStatus(_ context.Context, id int, status string) (*app.OrderResult, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &app.OrderResult{Order: &core.Order{ID: id, Status: core.OrderStatus(status)}}, nil
}

func (s *stubService) GetCustomerOrders(_ context.Context, id int) (*app.OrderListResult, error) {
	return &app.OrderListResult{CustomerID: id}, nil
}

func (s *stubService) GetGrowerRevenue(_ context.Context, growerID int, start, end string) (*core.GrowerRevenueReport, error) {
	s.revenueArgs = [2]string{start, end}
	return &core.GrowerRevenueReport{GrowerID: growerID, From: start, To: end, TotalRevenue: decimal.NewFromInt(171)}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealth(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProcessOrder_Created(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, "")

	rec := do(t, h, http.MethodPost, "/api/orders/process",
		`{"customer_id":1,"payment_mode":"cash","items":[{"product_id":1,"quantity":"2.5"}],"idempotency_key":"body-key"}`,
		"Idempotency-Key", "header-key")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "header-key", svc.lastProcess.IdempotencyKey)
	require.Len(t, svc.lastProcess.Items, 1)
	assert.True(t, svc.lastProcess.Items[0].Quantity.Equal(decimal.RequireFromString("2.5")))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 9, body["id"])
	assert.Equal(t, "80", body["total_amount"])
	_, hasReplayed := body["replayed"]
	assert.False(t, hasReplayed)
}

func TestProcessOrder_ReplayReturnsOK(t *testing.T) {
	h := NewHandler(&stubService{replayed: true}, "")
	rec := do(t, h, http.MethodPost, "/api/orders/process",
		`{"customer_id":1,"payment_mode":"cash","items":[{"product_id":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"replayed":true`)
}

func TestProcessOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		kind   core.ErrorKind
		status int
	}{
		{core.KindInvalidOrder, http.StatusBadRequest},
		{core.KindProductNotFound, http.StatusBadRequest},
		{core.KindCustomerNotFound, http.StatusBadRequest},
		{core.KindInsufficientStock, http.StatusConflict},
		{core.KindDuplicateRequest, http.StatusConflict},
		{core.KindAllocationInconsistency, http.StatusInternalServerError},
		{core.KindPersistenceFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			svc := &stubService{processErr: &core.OrderError{Kind: tc.kind, Message: "boom"}}
			h := NewHandler(svc, "")
			rec := do(t, h, http.MethodPost, "/api/orders/process", `{"customer_id":1,"items":[]}`)
			assert.Equal(t, tc.status, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, string(tc.kind), e.Code)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestProcessOrder_BadJSON(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodPost, "/api/orders/process", `{"customer_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
}

func TestProcessOrder_BodyTooLarge(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	big := `{"payment_mode":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := do(t, h, http.MethodPost, "/api/orders/process", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGetOrder(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodGet, "/api/orders/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":42`)

	rec = do(t, h, http.MethodGet, "/api/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := NewHandler(&stubService{getErr: &core.OrderError{Kind: core.KindOrderNotFound, Message: "order 42 not found"}}, "")
	rec = do(t, missing, http.MethodGet, "/api/orders/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order 42 not found", decodeError(t, rec).Error)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodPut, "/api/admin/orders/3/status", `{"status":"delivered"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"delivered"`)

	rec = do(t, h, http.MethodPut, "/api/admin/orders/3/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := NewHandler(&stubService{statusErr: &core.OrderError{Kind: core.KindInvalidTransition, Message: "cannot move"}}, "")
	rec = do(t, bad, http.MethodPut, "/api/admin/orders/3/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCustomerOrders_EmptyList(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodGet, "/api/customers/2/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGrowerRevenue_PassesQuery(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, "")
	rec := do(t, h, http.MethodGet, "/api/growers/1/revenue?start=2025-03-01&end=2025-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"2025-03-01", "2025-03-31"}, svc.revenueArgs)
	assert.Contains(t, rec.Body.String(), `"total_revenue":"171"`)
}

func TestUnclassifiedPanicIsRecovered(t *testing.T) {
	// stubService has no ListProducts, so the nil embedded interface panics.
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestRequestID_HonorsSafeHeader(t *testing.T) {
	h := NewHandler(&stubService{}, "")
	rec := do(t, h, http.MethodGet, "/api/health", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/api/health", "", "X-Request-ID", "bad id!")
	assert.NotEqual(t, "bad id!", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h := NewHandler(&stubService{}, "https://shop.example")
	rec := do(t, h, http.MethodGet, "/api/health", "", "Origin", "https://shop.example")
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/api/health", "", "Origin", "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(core.KindProductNotFound, false))
	assert.Equal(t, http.StatusBadRequest, statusFor(core.KindProductNotFound, true))
	assert.Equal(t, http.StatusNotFound, statusFor(core.KindOrderNotFound, true))
	assert.Equal(t, http.StatusConflict, statusFor(core.KindInvalidTransition, false))
	assert.Equal(t, http.StatusInternalServerError, statusFor("", false))
}
