// internal/pkg/pricing/calculator_test.go
package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		qty      int
		discount string
		want     string
	}{
		{"no discount", "20.00", 2, "0", "40.00"},
		{"ten percent off", "10.00", 5, "10", "45.00"},
		{"full discount", "99.99", 3, "100", "0.00"},
		{"zero quantity", "15.50", 0, "0", "0.00"},
		{"fractional price rounds", "3.33", 3, "50", "5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(dec(tt.price), tt.qty, dec(tt.discount))
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestPurchaseTotals(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 5, DiscountPercent: dec("10")},
		{UnitPrice: dec("20.00"), Quantity: 2, DiscountPercent: dec("0")},
	}

	totals := PurchaseTotals(lines, dec("15"), dec("0"), dec("0"))

	require.True(t, dec("85.00").Equal(totals.Subtotal), "subtotal: got %s", totals.Subtotal)
	assert.True(t, dec("12.75").Equal(totals.Tax), "tax: got %s", totals.Tax)
	assert.True(t, dec("97.75").Equal(totals.Total), "total: got %s", totals.Total)
}

func TestPurchaseTotalsShippingAndDiscount(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("100.00"), Quantity: 1, DiscountPercent: dec("0")},
	}

	totals := PurchaseTotals(lines, dec("10"), dec("5.00"), dec("20.00"))

	// Tax is charged on the pre-discount subtotal, not on subtotal-discount.
	assert.True(t, dec("10.00").Equal(totals.Tax), "tax: got %s", totals.Tax)
	assert.True(t, dec("95.00").Equal(totals.Total), "total: got %s", totals.Total)
}

func TestPOSTotalsDiscountBeforeTax(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("50.00"), Quantity: 2, DiscountPercent: dec("0")},
	}

	totals := POSTotals(lines, dec("15"), dec("20.00"))

	// Tax is charged on the discounted amount: (100 - 20) * 15% = 12.
	require.True(t, dec("100.00").Equal(totals.Subtotal), "subtotal: got %s", totals.Subtotal)
	assert.True(t, dec("12.00").Equal(totals.Tax), "tax: got %s", totals.Tax)
	assert.True(t, dec("92.00").Equal(totals.Total), "total: got %s", totals.Total)
}

func TestPOSTotalsZeroDiscountMatchesPlainTax(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 3, DiscountPercent: dec("0")},
	}

	totals := POSTotals(lines, dec("15"), decimal.Zero)

	assert.True(t, dec("4.50").Equal(totals.Tax), "tax: got %s", totals.Tax)
	assert.True(t, dec("34.50").Equal(totals.Total), "total: got %s", totals.Total)
}

func TestTotalsWithZeroTaxRate(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("42.00"), Quantity: 1, DiscountPercent: dec("0")},
	}

	purchase := PurchaseTotals(lines, decimal.Zero, decimal.Zero, decimal.Zero)
	pos := POSTotals(lines, decimal.Zero, decimal.Zero)

	assert.True(t, purchase.Tax.IsZero())
	assert.True(t, pos.Tax.IsZero())
	assert.True(t, dec("42.00").Equal(purchase.Total))
	assert.True(t, dec("42.00").Equal(pos.Total))
}
