package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate is applied to the cart subtotal at checkout.
var DefaultTaxRate = decimal.NewFromFloat(0.10)

func init() {
	// The storefront API exchanges prices and amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds d half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithTax returns round2(subtotal × (1 + rate)).
func WithTax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(decimal.NewFromInt(1).Add(rate)))
}
