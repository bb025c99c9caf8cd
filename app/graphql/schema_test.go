package graphql_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vendo/app/graphql"
	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/app/services"
	gql "github.com/shashiranjanraj/vendo/pkg/graphql"
)

type stubProducts []models.Product

func (s stubProducts) All(context.Context) ([]models.Product, error) { return s, nil }

type stubLedger struct {
	got  repositories.PurchaseQuery
	rows []models.Purchase
}

func (s *stubLedger) Find(_ context.Context, q repositories.PurchaseQuery) ([]models.Purchase, error) {
	s.got = q
	return s.rows, nil
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type result struct {
	Data   map[string][]map[string]interface{} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func do(t *testing.T, ledger *stubLedger, query string) result {
	t.Helper()

	products := stubProducts{{ID: "coke", Name: "Coca-Cola", Price: decimal.RequireFromString("1.50"), Stock: 10}}
	history := services.NewHistoryService(ledger).WithClock(func() time.Time { return now })

	schema, err := graphql.NewSchema(products, history)
	require.NoError(t, err)

	body, _ := json.Marshal(gql.Request{Query: query})
	rec := httptest.NewRecorder()
	gql.Handler(schema)(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body))))
	require.Equal(t, http.StatusOK, rec.Code)

	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestProductsQuery(t *testing.T) {
	res := do(t, &stubLedger{}, `{ products { id name price stock } }`)

	require.Empty(t, res.Errors)
	require.Len(t, res.Data["products"], 1)
	p := res.Data["products"][0]
	assert.Equal(t, "coke", p["id"])
	assert.Equal(t, 1.5, p["price"])
	assert.Equal(t, float64(10), p["stock"])
}

func TestPurchasesQueryPassesFilters(t *testing.T) {
	ledger := &stubLedger{rows: []models.Purchase{{
		ID:          "p1",
		ProductID:   "coke",
		ProductName: "Coca-Cola",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("1.50"),
		Amount:      decimal.RequireFromString("3.00"),
		Timestamp:   now.Add(-time.Minute),
		MachineID:   "lobby",
	}}}

	res := do(t, ledger, `{ purchases(searchTerm: "COKE", machineId: "lobby", hours: 2, sortField: "amount", sortOrder: "asc") { id amount quantity machineId timestamp } }`)

	require.Empty(t, res.Errors)
	require.Len(t, res.Data["purchases"], 1)
	assert.Equal(t, 3.0, res.Data["purchases"][0]["amount"])
	assert.Equal(t, "2026-05-01T11:59:00Z", res.Data["purchases"][0]["timestamp"])

	assert.Equal(t, "COKE", ledger.got.Search)
	assert.Equal(t, "lobby", ledger.got.MachineID)
	assert.Equal(t, "amount", ledger.got.SortField)
	assert.False(t, ledger.got.Desc)
	assert.Equal(t, now.Add(-2*time.Hour), ledger.got.Since)
}

func TestPurchasesQueryRejectsBadSort(t *testing.T) {
	ledger := &stubLedger{}
	res := do(t, ledger, `{ purchases(sortField: "price") { id } }`)

	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "sortField")
	assert.Equal(t, repositories.PurchaseQuery{}, ledger.got)
}

func TestHandlerRequiresQuery(t *testing.T) {
	schema, err := graphql.NewSchema(stubProducts{}, services.NewHistoryService(&stubLedger{}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gql.Handler(schema)(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
