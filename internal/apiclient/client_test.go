package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

// fakeAPI serves canned responses and records every request it receives.
type fakeAPI struct {
	server  *httptest.Server
	calls   atomic.Int32
	last    atomic.Pointer[recorded]
	status  int
	payload string
}

func newFakeAPI(t *testing.T, status int, payload string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{status: status, payload: payload}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.last.Store(&recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.payload)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(baseURL string, token string, opts ...Option) *Client {
	hc := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 4})
	return New(baseURL+"/api", hc, staticToken(token), logger.Discard(), opts...)
}

func TestAuthenticatedCalls_WithoutTokenMakeNoRequest(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	c := newTestClient(api.server.URL, "")
	ctx := context.Background()

	calls := []func() error{
		func() error { _, err := c.AddToCart(ctx, "p1", 1); return err },
		func() error { _, err := c.GetCart(ctx); return err },
		func() error { return c.UpdateCartItem(ctx, "p1", 2) },
		func() error { return c.RemoveCartItem(ctx, "p1") },
		func() error { return c.ClearCart(ctx) },
		func() error { _, err := c.PaymentMethods(ctx); return err },
		func() error { _, err := c.ProcessPayment(ctx, domain.PaymentRequest{}); return err },
		func() error { _, err := c.GetProfile(ctx); return err },
		func() error { _, err := c.UpdateProfile(ctx, domain.Profile{}); return err },
		func() error { return c.ChangePassword(ctx, "a", "b") },
	}

	for i, fn := range calls {
		assert.ErrorIs(t, fn(), apperrors.ErrUnauthenticated, "call %d", i)
	}
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestRequests_UseDocumentedPathsAndBearer(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"message":"ok"}`)
	c := newTestClient(api.server.URL, "tok")
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   string
	}{
		{"update", func() error { return c.UpdateCartItem(ctx, "p1", 3) }, http.MethodPut, "/api/cart/update", `{"productId":"p1","quantity":3}`},
		{"remove", func() error { return c.RemoveCartItem(ctx, "p 1") }, http.MethodDelete, "/api/cart/p 1", ``},
		{"clear", func() error { return c.ClearCart(ctx) }, http.MethodDelete, "/api/cart/clear", ``},
		{"password", func() error { return c.ChangePassword(ctx, "old", "newpass") }, http.MethodPut, "/api/profile/password", `{"currentPassword":"old","newPassword":"newpass"}`},
		{"seed", func() error { return c.SeedProducts(ctx) }, http.MethodPost, "/api/products/seed", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := api.last.Load()
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.path, got.path)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, got.body)
			}
		})
	}
	assert.Equal(t, "Bearer tok", api.last.Load().auth)
}

func TestListProducts_IsPublic(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `[{"_id":"p1","name":"Tote","price":12.5,"category":"Bags"}]`)
	c := newTestClient(api.server.URL, "")

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tote", products[0].Name)
	assert.Equal(t, "12.50", products[0].Price.StringFixed(2))
	assert.Empty(t, api.last.Load().auth)
}

func TestGetProduct(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"_id":"p1","name":"Tote","price":12.5}`)
	c := newTestClient(api.server.URL, "")

	p, err := c.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "/api/products/p1", api.last.Load().path)
}

func TestGetCart_DecodesItems(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"items":[
		{"productId":{"_id":"a","name":"A","price":10},"quantity":2},
		{"productId":null,"quantity":1}
	]}`)
	c := newTestClient(api.server.URL, "tok")

	cart, err := c.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "20.00", cart.Subtotal().StringFixed(2))
}

func TestAddToCart_ResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCart bool
	}{
		{"cart body", `{"items":[{"productId":{"_id":"a","name":"A","price":1},"quantity":1}]}`, true},
		{"wrapped cart", `{"message":"added","cart":{"items":[{"productId":"a","quantity":1}]}}`, true},
		{"ack", `{"message":"Item added to cart"}`, false},
		{"empty", ``, false},
		{"plain text ack", `Added`, false},
		{"json string ack", `"Item added"`, false},
		{"truncated json", `{"items":[`, false},
		{"cart null", `{"cart":null}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, http.StatusOK, tt.payload)
			c := newTestClient(api.server.URL, "tok")

			cart, err := c.AddToCart(context.Background(), "a", 1)
			require.NoError(t, err)
			if tt.wantCart {
				require.NotNil(t, cart)
				assert.Len(t, cart.Items, 1)
			} else {
				assert.Nil(t, cart)
			}
			assert.JSONEq(t, `{"productId":"a","quantity":1}`, api.last.Load().body)
		})
	}
}

func TestProcessPayment_RoundTripsOrder(t *testing.T) {
	order := `{"success":true,"orderId":"ORD-1","transactionId":"TXN-1","timestamp":"2024-01-01T00:00:00Z",
		"status":"completed","paymentMethod":{"brand":"Visa","lastFour":"1111"},"amount":27.5,"currency":"USD",
		"items":[{"productId":"A","name":"A","price":10,"quantity":2}]}`
	api := newFakeAPI(t, http.StatusOK, order)
	c := newTestClient(api.server.URL, "tok")

	got, err := c.ProcessPayment(context.Background(), domain.PaymentRequest{
		CardNumber: "4111111111111111",
		Amount:     decimal.RequireFromString("27.50"),
		Items:      []domain.CheckoutLine{{ProductID: "A", Name: "A", Price: decimal.NewFromInt(10), Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.OrderID)
	assert.Equal(t, "TXN-1", got.TransactionID)
	assert.Equal(t, "27.50", got.Amount.StringFixed(2))
	require.Len(t, got.Items, 1)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(api.last.Load().body), &sent))
	assert.Equal(t, 27.5, sent["amount"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		target  error
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Token is not valid"}`, apperrors.ErrUnauthenticated, "Token is not valid"},
		{"forbidden", http.StatusForbidden, ``, apperrors.ErrUnauthenticated, "please log in to continue"},
		{"declined", http.StatusBadRequest, `{"success":false,"message":"Your card was declined"}`, apperrors.ErrRemoteRejected, "Your card was declined"},
		{"error string", http.StatusBadRequest, `{"error":"Current password is incorrect"}`, apperrors.ErrRemoteRejected, "Current password is incorrect"},
		{"server error", http.StatusInternalServerError, `{"message":"Error processing payment"}`, apperrors.ErrRemoteRejected, "Error processing payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, tt.status, tt.payload)
			c := newTestClient(api.server.URL, "tok")

			err := c.ClearCart(context.Background())
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.message, apperrors.Message(err, ""))
		})
	}
}

func TestErrorMapping_ServerErrorThroughBreaker(t *testing.T) {
	api := newFakeAPI(t, http.StatusInternalServerError, `{"message":"Error processing payment"}`)
	hc := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 4})
	cfg := httpclient.DefaultCircuitBreakerConfig("apiclient-test-5xx")
	cb := httpclient.NewCircuitBreakerClient(hc, cfg, logger.Discard())
	c := New(api.server.URL+"/api", cb, staticToken("tok"), logger.Discard())

	_, err := c.ProcessPayment(context.Background(), domain.PaymentRequest{})
	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
	assert.Equal(t, "Error processing payment", apperrors.Message(err, ""))
}

func TestErrorMapping_OpenBreakerIsNetworkError(t *testing.T) {
	api := newFakeAPI(t, http.StatusBadGateway, ``)
	hc := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 4})
	cfg := httpclient.DefaultCircuitBreakerConfig("apiclient-test-open")
	cfg.MinRequests = 1
	cfg.Timeout = time.Minute
	cb := httpclient.NewCircuitBreakerClient(hc, cfg, logger.Discard())
	var logs bytes.Buffer
	c := New(api.server.URL+"/api", cb, staticToken("tok"), logger.NewWithWriter("apiclient", "debug", logger.FormatJSON, &logs))
	ctx := context.Background()

	_, err := c.GetCart(ctx)
	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
	assert.NotContains(t, logs.String(), "circuit breaker open")

	_, err = c.GetCart(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.ErrorIs(t, err, httpclient.ErrCircuitOpen)
	assert.Equal(t, int32(1), api.calls.Load())

	assert.Contains(t, logs.String(), `"msg":"api call skipped, circuit breaker open"`)
	assert.Contains(t, logs.String(), `"breaker":"apiclient-test-open"`)
}

func TestErrorMapping_TransportFailure(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	url := api.server.URL
	api.server.Close()

	c := newTestClient(url, "tok")
	_, err := c.GetCart(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestErrorMapping_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	hc := httpclient.New(httpclient.Config{Timeout: 50 * time.Millisecond, MaxConnsPerHost: 4})
	c := New(server.URL+"/api", hc, staticToken("tok"), logger.Discard())

	_, err := c.GetCart(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestErrorMapping_UndecodableSuccessBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `<html>maintenance</html>`)
	c := newTestClient(api.server.URL, "tok")

	_, err := c.GetCart(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRateLimit_WaitFailureIsNetworkError(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `[]`)
	c := newTestClient(api.server.URL, "", WithRateLimit(0.01, 1))

	_, err := c.ListProducts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListProducts(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestCorrelationIDIsForwarded(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Correlation-ID"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, "")
	ctx := logger.WithCorrelationID(context.Background(), "corr-42")
	_, err := c.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "corr-42", got.Load())
}

func TestMetrics_CountOutcomes(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	c := newTestClient(api.server.URL, "")

	before := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("clear_cart", OutcomeUnauthenticated))
	_ = c.ClearCart(context.Background())
	after := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("clear_cart", OutcomeUnauthenticated))

	assert.Equal(t, before+1, after)
}

func TestTracing_SpanPerCall(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var traceparent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("Traceparent"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"nope"}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, "tok", WithTracer(tp.Tracer("test")))
	_, err := c.GetCart(context.Background())
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "storefront.get_cart", spans[0].Name)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
	assert.NotEmpty(t, traceparent.Load())
}
