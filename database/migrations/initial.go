package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000001_create_purchases_table", &CreatePurchasesTable{})
}

// -------- 0001: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0002: purchases --------

type CreatePurchasesTable struct{}

func (m *CreatePurchasesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Purchase{})
}

func (m *CreatePurchasesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("purchases")
}
