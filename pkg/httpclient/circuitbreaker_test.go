package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

// flakyAPI serves 500 with a payment error body while failing is set and
// 200 otherwise.
type flakyAPI struct {
	failing atomic.Bool
	hits    atomic.Int32
	srv     *httptest.Server
}

func newFlakyAPI(t *testing.T, failing bool) *flakyAPI {
	t.Helper()
	f := &flakyAPI{}
	f.failing.Store(failing)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if f.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"Error processing payment"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newBreaker(name string, openFor time.Duration) *CircuitBreakerClient {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MinRequests = 3
	cfg.Timeout = openFor
	return NewCircuitBreakerClient(retryingClient(0), cfg, logger.Discard())
}

// breakerState reads the exported state gauge: 0 closed, 1 half-open, 2 open.
func breakerState(cb *CircuitBreakerClient) float64 {
	return testutil.ToFloat64(circuitBreakerState.WithLabelValues(cb.Name()))
}

func trip(t *testing.T, cb *CircuitBreakerClient, url string) {
	t.Helper()
	for range 3 {
		_, err := get(context.Background(), cb, url)
		require.Error(t, err)
	}
	require.Equal(t, float64(2), breakerState(cb))
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("storefront-api")
	assert.Equal(t, "storefront-api", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}

func TestCircuitBreaker_PassesHealthyResponses(t *testing.T) {
	api := newFlakyAPI(t, false)
	cb := newBreaker("cb-healthy", time.Second)

	resp, err := get(context.Background(), cb, api.srv.URL+"/api/cart")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), breakerState(cb))
	assert.Equal(t, "cb-healthy", cb.Name())
}

func TestCircuitBreaker_OpensAndRejectsWithoutCalling(t *testing.T) {
	api := newFlakyAPI(t, true)
	cb := newBreaker("cb-open", time.Minute)

	trip(t, cb, api.srv.URL)

	before := api.hits.Load()
	for range 5 {
		_, err := get(context.Background(), cb, api.srv.URL)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, before, api.hits.Load(), "open breaker must not reach the API")
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	api := newFlakyAPI(t, true)
	cb := newBreaker("cb-recover", 100*time.Millisecond)

	trip(t, cb, api.srv.URL)
	time.Sleep(150 * time.Millisecond)
	api.failing.Store(false)

	resp, err := get(context.Background(), cb, api.srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, float64(0), breakerState(cb))
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Your card was declined"}`))
	}))
	defer srv.Close()

	cb := newBreaker("cb-4xx", time.Minute)
	for range 5 {
		resp, err := get(context.Background(), cb, srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, float64(0), breakerState(cb))
}

func TestCircuitBreaker_ServerErrorCarriesBody(t *testing.T) {
	api := newFlakyAPI(t, true)
	cb := newBreaker("cb-body", time.Minute)

	_, err := get(context.Background(), cb, api.srv.URL)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)

	appErr, ok := AsServerError(err)
	require.True(t, ok)
	assert.Equal(t, "Error processing payment", appErr.Message)
}

func TestCircuitBreaker_CancelledCallsDoNotTrip(t *testing.T) {
	api := newFlakyAPI(t, false)
	cb := newBreaker("cb-cancelled", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for range 5 {
		_, err := get(ctx, cb, api.srv.URL)
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, float64(0), breakerState(cb))
}
