package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
)

// DefaultTaxRate is the flat GST percentage applied when a caller does not
// supply a rate.
var DefaultTaxRate = decimal.NewFromFloat(0.18)

// LineItem is the minimal pricing view of an order or invoice line.
type LineItem struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals carries the computed monetary breakdown of a billable item set.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals sums the line items and applies tax and discount. Quantities
// must be positive and unit prices non-negative; the function has no side
// effects.
func ComputeTotals(items []LineItem, taxRate, discount decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: unit price must not be negative", i))
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return TotalsFromSubtotal(subtotal, taxRate, discount)
}

// TotalsFromSubtotal applies tax and discount to an already-known subtotal,
// such as a subscription plan price.
func TotalsFromSubtotal(subtotal, taxRate, discount decimal.Decimal) (Totals, error) {
	if subtotal.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	if taxRate.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	if discount.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Sub(discount),
	}, nil
}
