package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the remote cart. Product is nil when the product
// failed to resolve on the server (for example it was deleted); such items are
// kept but excluded from totals and counts.
type CartItem struct {
	ProductID string
	Product   *Product
	Quantity  int
}

// Resolved reports whether the item carries a product snapshot.
func (i CartItem) Resolved() bool {
	return i.Product != nil
}

// LineTotal returns price × quantity, or zero for an unresolved item.
func (i CartItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type cartItemWire struct {
	ProductID json.RawMessage `json:"productId"`
	Quantity  int             `json:"quantity"`
}

// UnmarshalJSON accepts productId as a populated product object, a bare id
// string or null.
func (i *CartItem) UnmarshalJSON(data []byte) error {
	var w cartItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode cart item: %w", err)
	}

	*i = CartItem{Quantity: w.Quantity}
	raw := bytes.TrimSpace(w.ProductID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &i.ProductID); err != nil {
			return fmt.Errorf("decode cart item product id: %w", err)
		}
	default:
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decode cart item product: %w", err)
		}
		i.ProductID = p.ID
		i.Product = &p
	}
	return nil
}

// MarshalJSON writes the populated form when a snapshot is present and the
// bare id otherwise.
func (i CartItem) MarshalJSON() ([]byte, error) {
	var productID any
	switch {
	case i.Product != nil:
		productID = i.Product
	case i.ProductID != "":
		productID = i.ProductID
	}
	return json.Marshal(struct {
		ProductID any `json:"productId"`
		Quantity  int `json:"quantity"`
	}{productID, i.Quantity})
}

// Cart is the authenticated user's cart, unique by product id.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Subtotal returns Σ price × quantity over resolved items. It is recomputed
// on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount returns the total quantity over resolved items.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	var count int
	for _, item := range c.Items {
		if item.Resolved() {
			count += item.Quantity
		}
	}
	return count
}

// Resolved returns the items that carry a product snapshot.
func (c *Cart) Resolved() []CartItem {
	if c == nil {
		return nil
	}
	out := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Resolved() {
			out = append(out, item)
		}
	}
	return out
}

// FindItemIndex returns the index of the item for productID, or -1.
func (c *Cart) FindItemIndex(productID string) int {
	if c == nil {
		return -1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	out := &Cart{Items: make([]CartItem, len(c.Items))}
	for i, item := range c.Items {
		if item.Product != nil {
			p := *item.Product
			item.Product = &p
		}
		out.Items[i] = item
	}
	return out
}
