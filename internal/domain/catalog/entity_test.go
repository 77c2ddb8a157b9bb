// internal/domain/catalog/entity_test.go
package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductStockChecks(t *testing.T) {
	p := Product{StockQuantity: 0, ReorderLevel: 10}
	assert.False(t, p.IsInStock())
	assert.True(t, p.IsLowStock())

	p.StockQuantity = 10
	assert.True(t, p.IsInStock())
	assert.True(t, p.IsLowStock(), "at exactly the reorder level a product is low stock")

	p.StockQuantity = 11
	assert.False(t, p.IsLowStock())
}

func TestProductProfitMargin(t *testing.T) {
	p := Product{
		CostPrice: decimal.RequireFromString("7.50"),
		SalePrice: decimal.RequireFromString("12.00"),
	}
	assert.True(t, decimal.RequireFromString("4.50").Equal(p.ProfitMargin()))
}
