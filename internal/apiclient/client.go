// Package apiclient issues requests to the storefront REST API and maps every
// failure onto the storefront error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

const (
	tracerName      = "github.com/utafrali/storefront/internal/apiclient"
	maxResponseBody = 10 << 20
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the user is not signed in.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront API.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	tokens  TokenSource
	logger  *slog.Logger
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// Option configures the client.
type Option func(*Client)

// WithRateLimit throttles outgoing requests to rps with the given burst. A
// non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:3001/api".
func New(baseURL string, doer httpclient.Doer, tokens TokenSource, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Discard()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		tokens:  tokens,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call describes one API request. An out of type *[]byte receives the raw
// body undecoded.
type call struct {
	op     string
	method string
	path   string
	auth   bool
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	start := time.Now()
	defer func() {
		observe(cl.op, err, time.Since(start))
	}()

	var token string
	if cl.auth {
		token = c.tokens.Token()
		if token == "" {
			return apperrors.Unauthenticated("please log in to continue")
		}
	}

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return apperrors.Network(fmt.Errorf("%s: wait for rate limiter: %w", cl.op, werr))
		}
	}

	ctx, span := c.tracer.Start(ctx, "storefront."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethod(cl.method),
			attribute.String("storefront.operation", cl.op),
			attribute.String("storefront.path", cl.path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, cl, token)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		if appErr, ok := httpclient.AsServerError(err); ok {
			span.SetAttributes(semconv.HTTPStatusCode(appErr.Status))
			c.logFailure(ctx, cl, appErr)
			return appErr
		}
		netErr := apperrors.Network(fmt.Errorf("%s: %w", cl.op, err))
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			c.logBreakerOpen(ctx, cl)
			return netErr
		}
		c.logFailure(ctx, cl, netErr)
		return netErr
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(semconv.HTTPStatusCode(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := httpclient.ParseResponseError(resp)
		c.logFailure(ctx, cl, perr)
		return perr
	}

	data, rerr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if rerr != nil {
		return apperrors.Network(fmt.Errorf("%s: read response: %w", cl.op, rerr))
	}
	if raw, ok := cl.out.(*[]byte); ok {
		*raw = data
	} else if cl.out != nil {
		if derr := json.Unmarshal(data, cl.out); derr != nil {
			return apperrors.Network(fmt.Errorf("%s: decode response: %w", cl.op, derr))
		}
	}

	c.logger.DebugContext(ctx, "api call succeeded",
		slog.String("operation", cl.op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call, token string) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// logBreakerOpen records a call the circuit breaker refused to send.
func (c *Client) logBreakerOpen(ctx context.Context, cl call) {
	attrs := []any{
		slog.String("operation", cl.op),
		slog.String("method", cl.method),
		slog.String("path", cl.path),
	}
	if named, ok := c.doer.(interface{ Name() string }); ok {
		attrs = append(attrs, slog.String("breaker", named.Name()))
	}
	c.logger.WarnContext(ctx, "api call skipped, circuit breaker open", attrs...)
}

func (c *Client) logFailure(ctx context.Context, cl call, err error) {
	level := slog.LevelWarn
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		level = slog.LevelInfo
	}
	c.logger.Log(ctx, level, "api call failed",
		slog.String("operation", cl.op),
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", apperrors.HTTPStatus(err)),
		slog.String("error", err.Error()),
	)
}
