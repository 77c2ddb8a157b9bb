// internal/domain/cart/entity_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartTotalItems(t *testing.T) {
	c := Cart{}
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())

	c.Items = []Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	}
	assert.False(t, c.IsEmpty())
	assert.Equal(t, 5, c.TotalItems())
}
