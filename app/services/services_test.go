package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/app/services"
	_ "github.com/shashiranjanraj/vendo/database/migrations"
	"github.com/shashiranjanraj/vendo/pkg/database"
	"github.com/shashiranjanraj/vendo/pkg/migration"
)

var ctx = context.Background()

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db        *gorm.DB
	products  *repositories.ProductRepository
	purchases *repositories.PurchaseRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:svc_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &fixture{
		db:        db,
		products:  repositories.NewProductRepository(db),
		purchases: repositories.NewPurchaseRepository(db),
	}
}

func (f *fixture) seed(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	require.NoError(t, f.products.Upsert(ctx, &models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.FindByID(ctx, id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) ledgerCount(t *testing.T, id string) int64 {
	t.Helper()
	n, err := f.purchases.CountByProduct(ctx, id)
	require.NoError(t, err)
	return n
}

// svcError asserts err is a *services.Error and returns it.
func svcError(t *testing.T, err error) *services.Error {
	t.Helper()
	var e *services.Error
	require.True(t, errors.As(err, &e), "expected *services.Error, got %v", err)
	return e
}
