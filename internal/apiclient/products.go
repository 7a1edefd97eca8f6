package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/storefront/internal/domain"
)

// ListProducts calls GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, call{op: "list_products", method: http.MethodGet, path: "/products", out: &out})
	return out, err
}

// GetProduct calls GET /products/:id.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, call{op: "get_product", method: http.MethodGet, path: "/products/" + url.PathEscape(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SeedProducts calls POST /products/seed, which loads the demo catalog.
func (c *Client) SeedProducts(ctx context.Context) error {
	return c.do(ctx, call{op: "seed_products", method: http.MethodPost, path: "/products/seed"})
}
