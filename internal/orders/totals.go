package orders

import "github.com/shopspring/decimal"

// TaxRate is the observed fixed rate applied to checkout display totals.
var TaxRate = decimal.RequireFromString("0.09")

// Totals is the client-side checkout display breakdown. It exists for
// presentation before order creation only; the authoritative amounts are
// whatever the server returns in the created order.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// CheckoutTotals derives tax and grand total from the cart subtotal:
// grandTotal = subtotal * (1 + TaxRate).
func CheckoutTotals(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax),
	}
}
