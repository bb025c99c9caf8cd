package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
)

// ProductRepository is the inventory store. Stock only moves through
// TryDecrement and Restock, both single guarded UPDATE statements.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// All returns every product ordered by id.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	products := []models.Product{}
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

// FindByID looks up a product by primary key.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	return product, err
}

// TryDecrement removes qty units from the product only if that many are in
// stock. The check and the write are one UPDATE, so concurrent callers can
// never drive stock below zero. The returned product reflects the row right
// after the decrement, including the price the units were sold at.
func (r *ProductRepository) TryDecrement(ctx context.Context, id string, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}
	defer metrics.ObserveDBQuery("update", time.Now())

	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", id, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var current models.Product
			err := tx.Select("id", "stock").Where("id = ?", id).First(&current).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			if err != nil {
				return err
			}
			return &InsufficientStockError{ProductID: id, Available: current.Stock, Requested: qty}
		}

		return tx.Where("id = ?", id).First(&product).Error
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// Restock puts qty units back. Used to compensate a decrement whose ledger
// entry could not be written.
func (r *ProductRepository) Restock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	defer metrics.ObserveDBQuery("update", time.Now())

	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Upsert inserts the product or overwrites name, price and stock. Seeding only.
func (r *ProductRepository) Upsert(ctx context.Context, product *models.Product) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "stock", "updated_at"}),
	}).Create(product).Error
}
