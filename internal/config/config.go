// Package config loads the environment configuration of the storefront CLI
// and of the mock API server.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Session backends.
const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Client holds all configuration for the storefront CLI.
type Client struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Remote API
	APIBaseURL     string          `env:"STOREFRONT_API_BASE_URL" envDefault:"http://localhost:3001/api"`
	HTTPTimeout    time.Duration   `env:"STOREFRONT_HTTP_TIMEOUT" envDefault:"15s"`
	HTTPMaxRetries int             `env:"STOREFRONT_HTTP_MAX_RETRIES" envDefault:"0"`
	TaxRate        decimal.Decimal `env:"STOREFRONT_TAX_RATE" envDefault:"0.10"`

	// Client-side throttle, 0 disables it
	RateLimitRPS   float64 `env:"STOREFRONT_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"STOREFRONT_RATE_LIMIT_BURST" envDefault:"5"`

	// Circuit breaker around API calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Session persistence
	SessionBackend string        `env:"STOREFRONT_SESSION_BACKEND" envDefault:"file"`
	SessionFile    string        `env:"STOREFRONT_SESSION_FILE"`
	SessionProfile string        `env:"STOREFRONT_SESSION_PROFILE" envDefault:"default"`
	SessionTTL     time.Duration `env:"STOREFRONT_SESSION_TTL" envDefault:"0s"`

	// Redis (session backend "redis")
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// LoadClient reads the CLI configuration from environment variables.
func LoadClient(opts ...pkgconfig.Option) (*Client, error) {
	cfg := &Client{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) validate() error {
	u, err := url.ParseRequestURI(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid STOREFRONT_API_BASE_URL %q: %w", c.APIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STOREFRONT_API_BASE_URL must be http or https, got %q", u.Scheme)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("STOREFRONT_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("STOREFRONT_HTTP_MAX_RETRIES must not be negative, got %d", c.HTTPMaxRetries)
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("STOREFRONT_TAX_RATE must be between 0 and 1, got %s", c.TaxRate)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("STOREFRONT_RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("STOREFRONT_RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if !slices.Contains([]string{SessionBackendFile, SessionBackendRedis}, c.SessionBackend) {
		return fmt.Errorf("STOREFRONT_SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendFile, SessionBackendRedis, c.SessionBackend)
	}
	if c.SessionBackend == SessionBackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CBIntervalDuration returns the breaker counting interval.
func (c *Client) CBIntervalDuration() time.Duration {
	return time.Duration(c.CBInterval) * time.Second
}

// CBTimeoutDuration returns how long the breaker stays open.
func (c *Client) CBTimeoutDuration() time.Duration {
	return time.Duration(c.CBTimeout) * time.Second
}

// MockAPI holds all configuration for the mock API server.
type MockAPI struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"MOCKAPI_HTTP_PORT" envDefault:"3001"`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Seed the sample catalog on startup
	SeedProducts bool `env:"MOCKAPI_SEED_PRODUCTS" envDefault:"true"`

	// Kafka, empty disables event publishing
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// LoadMockAPI reads the mock API configuration from environment variables.
func LoadMockAPI(opts ...pkgconfig.Option) (*MockAPI, error) {
	cfg := &MockAPI{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load mockapi config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *MockAPI) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWTExpiry)
	}
	// Outside development the secret must be set explicitly and be strong.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
