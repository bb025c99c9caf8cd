package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/services"
)

type stubProducts struct {
	products []models.Product
	err      error
}

func (s stubProducts) All(context.Context) ([]models.Product, error) { return s.products, s.err }

type stubPurchaser struct {
	got  *models.PurchaseRequest
	resp *models.PurchaseResponse
	err  error
}

func (s *stubPurchaser) Purchase(_ context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error) {
	s.got = req
	return s.resp, s.err
}

type stubHistory struct {
	got       models.PurchaseFilterParams
	purchases []models.Purchase
	err       error
}

func (s *stubHistory) Query(_ context.Context, params models.PurchaseFilterParams) ([]models.Purchase, error) {
	s.got = params
	return s.purchases, s.err
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIndexWrapsProducts(t *testing.T) {
	c := NewProductController(stubProducts{products: []models.Product{
		{ID: "coke", Name: "Coca-Cola", Price: decimal.RequireFromString("1.50"), Stock: 3},
	}}, &stubPurchaser{}, &stubHistory{})

	rec := httptest.NewRecorder()
	c.Index(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	product := data[0].(map[string]any)
	assert.Equal(t, "coke", product["id"])
	assert.Equal(t, 1.5, product["price"])
}

func TestIndexStorageFailure(t *testing.T) {
	c := NewProductController(stubProducts{err: errors.New("db down")}, &stubPurchaser{}, &stubHistory{})

	rec := httptest.NewRecorder()
	c.Index(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPurchaseSuccess(t *testing.T) {
	p := &stubPurchaser{resp: &models.PurchaseResponse{
		Success:           true,
		Message:           "Purchase completed successfully",
		Remaining:         1,
		QuantityPurchased: 2,
		TotalCost:         decimal.RequireFromString("3.00"),
	}}
	c := NewProductController(stubProducts{}, p, &stubHistory{})

	rec := httptest.NewRecorder()
	c.Purchase(rec, httptest.NewRequest(http.MethodPost, "/api/products/purchase",
		strings.NewReader(`{"productId":"coke","quantity":2}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, p.got)
	assert.Equal(t, "coke", p.got.ProductID)
	assert.Equal(t, 2, p.got.Quantity)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.0, body["remaining"])
	assert.Equal(t, 2.0, body["quantityPurchased"])
	assert.Equal(t, 3.0, body["totalCost"])
}

func TestPurchaseEmptyBodyReachesEngineAsNil(t *testing.T) {
	p := &stubPurchaser{err: &services.Error{Kind: services.KindValidation, Message: "Request payload is required"}}
	c := NewProductController(stubProducts{}, p, &stubHistory{})

	rec := httptest.NewRecorder()
	c.Purchase(rec, httptest.NewRequest(http.MethodPost, "/api/products/purchase", nil))

	assert.Nil(t, p.got)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Request payload is required", body["message"])
}

func TestPurchaseMalformedJSON(t *testing.T) {
	p := &stubPurchaser{}
	c := NewProductController(stubProducts{}, p, &stubHistory{})

	rec := httptest.NewRecorder()
	c.Purchase(rec, httptest.NewRequest(http.MethodPost, "/api/products/purchase", strings.NewReader(`{"quantity":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, p.got)
}

func TestPurchaseErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any)
	}{
		{
			name:   "not found",
			err:    &services.Error{Kind: services.KindNotFound, Message: "Product with ID ghost not found"},
			status: http.StatusNotFound,
		},
		{
			name:   "out of stock",
			err:    &services.Error{Kind: services.KindOutOfStock, Message: "Insufficient stock. Available: 1, Requested: 2", Available: 1, Requested: 2},
			status: http.StatusConflict,
			check: func(t *testing.T, _ *httptest.ResponseRecorder, body map[string]any) {
				assert.Equal(t, 1.0, body["available"])
				assert.Equal(t, 2.0, body["requested"])
			},
		},
		{
			name:   "cooldown",
			err:    &services.Error{Kind: services.KindCooldown, Message: "wait", Remaining: 3200 * time.Millisecond},
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any) {
				assert.Equal(t, 3200.0, body["retryAfterMs"])
				assert.Equal(t, "4", rec.Header().Get("Retry-After"))
			},
		},
		{
			name:   "internal",
			err:    &services.Error{Kind: services.KindInternal, Message: "Database error occurred while processing purchase", Step: services.StepAppend},
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewProductController(stubProducts{}, &stubPurchaser{err: tc.err}, &stubHistory{})

			rec := httptest.NewRecorder()
			c.Purchase(rec, httptest.NewRequest(http.MethodPost, "/api/products/purchase",
				strings.NewReader(`{"productId":"coke","quantity":2}`)))

			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			if tc.check != nil {
				tc.check(t, rec, body)
			}
		})
	}
}

func TestPurchasesBindsQuery(t *testing.T) {
	h := &stubHistory{purchases: []models.Purchase{{ID: "p-1", ProductID: "coke"}}}
	c := NewProductController(stubProducts{}, &stubPurchaser{}, h)

	rec := httptest.NewRecorder()
	c.Purchases(rec, httptest.NewRequest(http.MethodGet,
		"/api/products/purchases?searchTerm=coke&machineId=machine-001&hours=24&sortField=amount&sortOrder=desc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coke", h.got.SearchTerm)
	assert.Equal(t, "machine-001", h.got.MachineID)
	require.NotNil(t, h.got.Hours)
	assert.Equal(t, 24, *h.got.Hours)
	assert.Equal(t, "amount", h.got.SortField)
	assert.Equal(t, "desc", h.got.SortOrder)

	data := decode(t, rec)["data"].([]any)
	assert.Len(t, data, 1)
}

func TestPurchasesRejectsBadParams(t *testing.T) {
	h := &stubHistory{}
	c := NewProductController(stubProducts{}, &stubPurchaser{}, h)

	rec := httptest.NewRecorder()
	c.Purchases(rec, httptest.NewRequest(http.MethodGet, "/api/products/purchases?hours=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "hours")

	h.err = &services.Error{Kind: services.KindValidation, Message: "Invalid purchase filter", Fields: map[string]string{"sortField": "The selected sortField is invalid."}}
	rec = httptest.NewRecorder()
	c.Purchases(rec, httptest.NewRequest(http.MethodGet, "/api/products/purchases?sortField=price", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "sortField")

	h.err = &services.Error{Kind: services.KindInternal, Message: "Could not load purchases"}
	rec = httptest.NewRecorder()
	c.Purchases(rec, httptest.NewRequest(http.MethodGet, "/api/products/purchases", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPurchasesEmptyIsArray(t *testing.T) {
	c := NewProductController(stubProducts{}, &stubPurchaser{}, &stubHistory{purchases: []models.Purchase{}})

	rec := httptest.NewRecorder()
	c.Purchases(rec, httptest.NewRequest(http.MethodGet, "/api/products/purchases", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"data":[]}`, rec.Body.String())
}

func TestBalanceRange(t *testing.T) {
	c := NewProductController(stubProducts{}, &stubPurchaser{}, &stubHistory{})

	for _, r := range []float64{0, 0.5, 0.99999999} {
		c.random = func() float64 { return r }
		rec := httptest.NewRecorder()
		c.Balance(rec, httptest.NewRequest(http.MethodGet, "/api/products/balance", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		balance := decode(t, rec)["balance"].(float64)
		assert.GreaterOrEqual(t, balance, 1.0)
		assert.Less(t, balance, 10.0)
	}
}
