// Package app wires the storefront client components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/account"
	"github.com/utafrali/storefront/internal/apiclient"
	"github.com/utafrali/storefront/internal/broadcast"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	apiBreakerName   = "storefront-api"
	slowRedisCommand = 250 * time.Millisecond
)

// App holds the client components sharing one session.
type App struct {
	cfg    *config.Client
	logger *slog.Logger

	Session     *session.Session
	API         *apiclient.Client
	Broadcaster *broadcast.Broadcaster
	Cart        *cart.Store
	Catalog     *catalog.Service
	Account     *account.Service

	closers []func(context.Context) error
}

// Option customizes New.
type Option func(*options)

type options struct {
	store session.Store
	doer  httpclient.Doer
}

// WithSessionStore overrides the configured session backend.
func WithSessionStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// WithDoer replaces the HTTP transport. The circuit breaker still wraps it.
func WithDoer(d httpclient.Doer) Option {
	return func(o *options) { o.doer = d }
}

// New builds the application from cfg and restores the saved session.
func New(ctx context.Context, cfg *config.Client, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}

	tcfg := tracing.DefaultConfig("storefront-cli")
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	shutdownTracer, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracer)

	store := o.store
	if store == nil {
		store, err = a.sessionStore(ctx)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	a.Session, err = session.Open(ctx, store, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	doer := o.doer
	if doer == nil {
		hcfg := httpclient.DefaultConfig()
		hcfg.Timeout = cfg.HTTPTimeout
		hcfg.MaxRetries = cfg.HTTPMaxRetries
		doer = httpclient.New(hcfg)
	}
	breaker := httpclient.NewCircuitBreakerClient(doer, breakerConfig(cfg), logger)

	a.API = apiclient.New(cfg.APIBaseURL, breaker, a.Session, logger,
		apiclient.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	a.Broadcaster = broadcast.New()
	a.Cart = cart.NewStore(a.API, a.Session, a.Broadcaster, logger, cart.WithLoadTimeout(cfg.HTTPTimeout))
	a.Catalog = catalog.NewService(a.API, logger)
	a.Account = account.NewService(a.API, a.Session, logger)

	return a, nil
}

// breakerConfig starts from the package defaults and applies the configured
// overrides. Zero values keep the default.
func breakerConfig(cfg *config.Client) httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig(apiBreakerName)
	if cfg.CBMaxRequests > 0 {
		cb.MaxRequests = cfg.CBMaxRequests
	}
	if d := cfg.CBIntervalDuration(); d > 0 {
		cb.Interval = d
	}
	if d := cfg.CBTimeoutDuration(); d > 0 {
		cb.Timeout = d
	}
	if cfg.CBFailureRatio > 0 {
		cb.FailureRatio = cfg.CBFailureRatio
	}
	if cfg.CBMinRequests > 0 {
		cb.MinRequests = cfg.CBMinRequests
	}
	return cb
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:        a.cfg.RedisAddr,
			Password:    a.cfg.RedisPassword,
			DB:          a.cfg.RedisDB,
			PingTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		database.SetSlowCommandLogging(slowRedisCommand, a.logger)
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		a.logger.Debug("session backend: redis", slog.String("addr", a.cfg.RedisAddr))
		return session.NewRedisStore(rdb, a.cfg.SessionProfile, a.cfg.SessionTTL), nil

	default:
		path := a.cfg.SessionFile
		if path == "" {
			var err error
			if path, err = session.DefaultPath(); err != nil {
				return nil, err
			}
		}
		fs, err := session.NewFileStore(path)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("session backend: file", slog.String("path", fs.Path()))
		return fs, nil
	}
}

// BeginCheckout reloads the cart and starts a checkout over a snapshot of
// it. It fails with an InvalidSession error when the cart is empty.
func (a *App) BeginCheckout(ctx context.Context) (*checkout.Orchestrator, error) {
	c, err := a.Cart.Load(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := checkout.NewSession(c, a.cfg.TaxRate)
	if err != nil {
		return nil, err
	}
	return checkout.New(snapshot, a.API, a.Broadcaster, a.logger)
}

// Close releases the cart store, backend connections and the tracer.
func (a *App) Close(ctx context.Context) error {
	if a.Cart != nil {
		a.Cart.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
