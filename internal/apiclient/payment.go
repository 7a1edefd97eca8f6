package apiclient

import (
	"context"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
)

// PaymentMethods calls GET /payment/methods.
func (c *Client) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	err := c.do(ctx, call{op: "payment_methods", method: http.MethodGet, path: "/payment/methods", auth: true, out: &out})
	return out, err
}

// ProcessPayment calls POST /payment/process. The returned order is the
// server's payload, untouched.
func (c *Client) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, call{
		op: "process_payment", method: http.MethodPost, path: "/payment/process", auth: true,
		body: req, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
