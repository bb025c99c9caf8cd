package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
)

// sortColumns maps the public sort fields onto purchase columns.
var sortColumns = map[string]string{
	models.SortByQuantity:  "quantity",
	models.SortByAmount:    "amount",
	models.SortByTimestamp: "purchased_at",
}

// PurchaseQuery is a resolved history filter. Zero values disable a criterion.
type PurchaseQuery struct {
	Since     time.Time
	MachineID string
	Search    string
	SortField string
	Desc      bool
}

// PurchaseRepository is the append-only purchase ledger.
type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Append writes a new ledger entry. Existing entries are never touched.
func (r *PurchaseRepository) Append(ctx context.Context, purchase *models.Purchase) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return r.db.WithContext(ctx).Create(purchase).Error
}

// Find returns the entries matching q. Ties on the sort column keep ledger
// order (ids are time-ordered UUIDv7).
func (r *PurchaseRepository) Find(ctx context.Context, q PurchaseQuery) ([]models.Purchase, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	tx := r.db.WithContext(ctx).Model(&models.Purchase{})

	if !q.Since.IsZero() {
		tx = tx.Where("purchased_at >= ?", q.Since.UTC())
	}
	if q.MachineID != "" {
		tx = tx.Where("machine_id = ?", q.MachineID)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(models.FoldSearch(q.Search)) + "%"
		tx = tx.Where("search_key LIKE ? ESCAPE '!'", pattern)
	}

	column, ok := sortColumns[q.SortField]
	if !ok {
		column = sortColumns[models.SortByTimestamp]
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	purchases := []models.Purchase{}
	if err := tx.Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// CountByProduct returns how many ledger entries reference productID.
func (r *PurchaseRepository) CountByProduct(ctx context.Context, productID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
