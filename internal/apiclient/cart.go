package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/utafrali/storefront/internal/domain"
)

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCart calls GET /cart.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, call{op: "get_cart", method: http.MethodGet, path: "/cart", auth: true, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart calls POST /cart/add. It returns the updated cart when the server
// answers with one and nil when it only acknowledges. Any 2xx body that is not
// a cart, JSON or not, counts as an acknowledgement.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	var raw []byte
	err := c.do(ctx, call{
		op:     "add_to_cart",
		method: http.MethodPost,
		path:   "/cart/add",
		auth:   true,
		body:   cartLine{ProductID: productID, Quantity: quantity},
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	cart, ok := cartFromAck(raw)
	if !ok {
		c.logger.DebugContext(ctx, "add acknowledged without cart",
			slog.String("product_id", productID),
			slog.Int("body_bytes", len(raw)),
		)
		return nil, nil
	}
	return cart, nil
}

// cartFromAck extracts a cart from an add response shaped either as the cart
// itself or as {"cart": {...}}. ok is false for anything else.
func cartFromAck(raw []byte) (*domain.Cart, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
		Cart  json.RawMessage `json:"cart"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}

	var src json.RawMessage
	switch {
	case len(envelope.Items) > 0:
		src = raw
	case len(envelope.Cart) > 0 && !bytes.Equal(envelope.Cart, []byte("null")):
		src = envelope.Cart
	default:
		return nil, false
	}

	var cart domain.Cart
	if err := json.Unmarshal(src, &cart); err != nil {
		return nil, false
	}
	return &cart, true
}

// UpdateCartItem calls PUT /cart/update.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, call{
		op: "update_cart_item", method: http.MethodPut, path: "/cart/update", auth: true,
		body: cartLine{ProductID: productID, Quantity: quantity},
	})
}

// RemoveCartItem calls DELETE /cart/:productId.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	return c.do(ctx, call{
		op: "remove_cart_item", method: http.MethodDelete, path: "/cart/" + url.PathEscape(productID), auth: true,
	})
}

// ClearCart calls DELETE /cart/clear.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, call{op: "clear_cart", method: http.MethodDelete, path: "/cart/clear", auth: true})
}
