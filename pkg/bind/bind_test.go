package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filter struct {
	Search string `json:"searchTerm"`
	Hours  *int   `json:"hours"`
	Limit  int    `json:"limit"`
	Hidden string `json:"-"`
}

func TestQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?searchTerm=coke&hours=24&limit=5&unknown=x", nil)

	var f filter
	errs := Query(req, &f)
	require.Empty(t, errs)
	assert.Equal(t, "coke", f.Search)
	require.NotNil(t, f.Hours)
	assert.Equal(t, 24, *f.Hours)
	assert.Equal(t, 5, f.Limit)
}

func TestQueryReportsBadIntegers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?hours=soon&limit=1.5", nil)

	var f filter
	errs := Query(req, &f)
	assert.Equal(t, "The hours must be an integer.", errs["hours"])
	assert.Contains(t, errs, "limit")
	assert.Nil(t, f.Hours)
}

func TestJSON(t *testing.T) {
	var dest struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"coke","quantity":2}`))
	require.NoError(t, JSON(req, &dest))
	assert.Equal(t, "coke", dest.ProductID)
	assert.Equal(t, 2, dest.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.ErrorIs(t, JSON(req, &dest), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":`))
	assert.ErrorContains(t, JSON(req, &dest), "invalid JSON")
}
