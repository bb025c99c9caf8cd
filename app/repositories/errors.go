package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports a conditional decrement that did not fit.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}
