package seeders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/repositories"
)

func init() {
	Register("products", SeedProducts)
}

// DefaultProducts is the machine's starting assortment.
func DefaultProducts() []models.Product {
	return []models.Product{
		{ID: "coke", Name: "Coca-Cola", Price: decimal.RequireFromString("1.50"), Stock: 10},
		{ID: "pepsi", Name: "Pepsi", Price: decimal.RequireFromString("1.45"), Stock: 10},
		{ID: "water", Name: "Still Water", Price: decimal.RequireFromString("1.00"), Stock: 20},
		{ID: "chips", Name: "Salted Chips", Price: decimal.RequireFromString("2.25"), Stock: 8},
		{ID: "snickers", Name: "Snickers Bar", Price: decimal.RequireFromString("1.75"), Stock: 12},
	}
}

// SeedProducts upserts DefaultProducts, resetting their stock.
func SeedProducts(db *gorm.DB) error {
	repo := repositories.NewProductRepository(db)
	for _, p := range DefaultProducts() {
		p := p
		if err := repo.Upsert(context.Background(), &p); err != nil {
			return err
		}
	}
	return nil
}
