package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutLine is the payment snapshot of one cart line.
type CheckoutLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CheckoutSession is the cart snapshot and total carried from the cart view
// into the payment flow.
type CheckoutSession struct {
	Items     []CheckoutLine  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewCheckoutSession snapshots the resolved items of cart. Later changes to
// cart do not affect the session. It returns nil when nothing is resolved.
func NewCheckoutSession(cart *Cart, taxRate decimal.Decimal) *CheckoutSession {
	resolved := cart.Resolved()
	if len(resolved) == 0 {
		return nil
	}

	s := &CheckoutSession{
		Items:     make([]CheckoutLine, 0, len(resolved)),
		Subtotal:  decimal.Zero,
		TaxRate:   taxRate,
		CreatedAt: time.Now().UTC(),
	}
	for _, item := range resolved {
		s.Items = append(s.Items, CheckoutLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		})
		s.Subtotal = s.Subtotal.Add(item.LineTotal())
	}
	s.Total = WithTax(s.Subtotal, taxRate)
	return s
}

// Empty reports whether the session has no lines.
func (s *CheckoutSession) Empty() bool {
	return s == nil || len(s.Items) == 0
}

// Tax returns Total - Subtotal.
func (s *CheckoutSession) Tax() decimal.Decimal {
	return s.Total.Sub(s.Subtotal)
}
