// internal/domain/purchase/errors.go
package purchase

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a purchase record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoLines is returned when an order is created without any lines.
var ErrNoLines = errors.New("purchase order must have at least one line")

// ErrNotReceivable is returned when goods are received against an
// order whose status does not allow it.
var ErrNotReceivable = errors.New("purchase order is not in a receivable status")

// ErrInvalidQuantity is returned for a zero or negative receipt quantity.
var ErrInvalidQuantity = errors.New("receipt quantity must be positive")

// OverReceiptError is returned when a receipt exceeds a line's pending
// quantity.
type OverReceiptError struct {
	LineID    uint
	Pending   int
	Requested int
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("cannot receive %d units: only %d pending on line %d",
		e.Requested, e.Pending, e.LineID)
}

// InvalidTransitionError is returned for a disallowed status change.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
