// internal/domain/stock/errors.go
package stock

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity is returned when a movement quantity is zero or negative.
var ErrInvalidQuantity = errors.New("movement quantity must be positive")

// ErrInvalidDirection is returned for a direction other than "in" or "out".
var ErrInvalidDirection = errors.New("movement direction must be \"in\" or \"out\"")

// ErrProductNotFound is returned when the referenced product does not exist.
var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError is returned when an outbound movement would
// drive a product's stock below zero.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}
