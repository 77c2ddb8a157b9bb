// internal/domain/stock/entity_test.go
package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovementSignedQuantity(t *testing.T) {
	in := Movement{Direction: DirectionIn, Quantity: 7}
	out := Movement{Direction: DirectionOut, Quantity: 3}

	assert.Equal(t, 7, in.SignedQuantity())
	assert.Equal(t, -3, out.SignedQuantity())
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{
		ProductID:   5,
		ProductName: "Widget",
		Available:   2,
		Requested:   4,
	}
	assert.Equal(t, "insufficient stock for Widget: available 2, requested 4", err.Error())
}
