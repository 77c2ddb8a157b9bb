// internal/pkg/pricing/calculator.go
package pricing

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Line is a single order line as seen by the totals calculators.
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
}

// Totals holds the computed monetary totals of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal computes the extended line amount after the per-line
// percentage discount, rounded to 2 decimal places.
func LineTotal(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(oneHundred))
	return gross.Mul(factor).Round(2)
}

// Subtotal sums the line totals of all lines.
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.UnitPrice, line.Quantity, line.DiscountPercent))
	}
	return subtotal
}

// PurchaseTotals computes purchase order totals. Tax applies to the
// full subtotal; the order-level discount is subtracted after tax and
// shipping are added:
//
//	total = subtotal + tax + shipping - discount
func PurchaseTotals(lines []Line, taxRatePercent, shipping, discount decimal.Decimal) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(taxRatePercent.Div(oneHundred)).Round(2)
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
	}
}

// POSTotals computes point-of-sale totals. The order-level discount is
// subtracted from the subtotal first and tax applies to the discounted
// amount:
//
//	total = (subtotal - discount) + tax
func POSTotals(lines []Line, taxRatePercent, discount decimal.Decimal) Totals {
	subtotal := Subtotal(lines)
	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(taxRatePercent.Div(oneHundred)).Round(2)
	total := discounted.Add(tax)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
	}
}
