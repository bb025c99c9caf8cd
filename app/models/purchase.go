package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is one ledger entry. Rows are appended once and never updated.
type Purchase struct {
	ID          string          `gorm:"primaryKey;size:36"               json:"id"`
	ProductID   string          `gorm:"size:64;not null;index"           json:"productId"`
	ProductName string          `gorm:"size:255;not null"                json:"productName"`
	Quantity    int             `gorm:"not null"                         json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"unitPrice"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"      json:"amount"`
	Timestamp   time.Time       `gorm:"column:purchased_at;not null;index" json:"timestamp"`
	MachineID   string          `gorm:"size:64;index"                    json:"machineId,omitempty"`
	SearchKey   string          `gorm:"size:330;not null;default:''"     json:"-"`
}

// searchSeparator keeps a search match from spanning id and name.
const searchSeparator = "\x1f"

// PurchaseSearchKey is the case-folded text the history search matches.
// SQLite's LOWER folds ASCII only, so keys are folded in Go.
func PurchaseSearchKey(productID, productName string) string {
	return FoldSearch(productID) + searchSeparator + FoldSearch(productName)
}

// FoldSearch folds s the same way stored search keys are folded.
func FoldSearch(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, searchSeparator, ""))
}

// BeforeCreate fills SearchKey and stores the timestamp in UTC, since
// SQLite compares timestamps as text.
func (p *Purchase) BeforeCreate(*gorm.DB) error {
	p.Timestamp = p.Timestamp.UTC()
	p.SearchKey = PurchaseSearchKey(p.ProductID, p.ProductName)
	return nil
}

// PurchaseRequest is the body of POST /api/products/purchase.
type PurchaseRequest struct {
	ProductID string `json:"productId"           validate:"required,max=64"`
	Quantity  int    `json:"quantity"            validate:"required,gte=1"`
	MachineID string `json:"machineId,omitempty" validate:"nullable,max=64"`
}

// PurchaseResponse is returned for both successful and rejected purchases.
type PurchaseResponse struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	Remaining         int             `json:"remaining"`
	QuantityPurchased int             `json:"quantityPurchased"`
	TotalCost         decimal.Decimal `json:"totalCost"`
	PurchaseID        string          `json:"purchaseId,omitempty"`
	RetryAfterMs      int64           `json:"retryAfterMs,omitempty"`
	Available         *int            `json:"available,omitempty"`
	Requested         *int            `json:"requested,omitempty"`
}

// Sort fields and orders accepted by the history query.
const (
	SortByQuantity  = "quantity"
	SortByAmount    = "amount"
	SortByTimestamp = "timestamp"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// PurchaseFilterParams are the query parameters of GET /api/products/purchases.
// Zero values mean "not set".
type PurchaseFilterParams struct {
	SearchTerm string `json:"searchTerm" validate:"nullable,max=100"`
	MachineID  string `json:"machineId"  validate:"nullable,max=64"`
	Hours      *int   `json:"hours"      validate:"nullable,gte=1,lte=876000"`
	SortField  string `json:"sortField"  validate:"nullable,in=quantity,amount,timestamp"`
	SortOrder  string `json:"sortOrder"  validate:"nullable,in=asc,desc"`
}
