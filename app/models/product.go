package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a slot in the machine. Stock is only changed through the
// conditional decrement in repositories.ProductRepository.
type Product struct {
	ID        string          `gorm:"primaryKey;size:64"                      json:"id"`
	Name      string          `gorm:"size:255;not null;index"                 json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"   json:"price"`
	Stock     int             `gorm:"not null;default:0;check:stock >= 0"     json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
