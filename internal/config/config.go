package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/config"
)

// State backends.
const (
	StateSQLite = "sqlite"
	StateRedis  = "redis"
)

// Payment processors.
const (
	ProcessorMock   = "mock"
	ProcessorStripe = "stripe"
)

// Config holds all configuration for the storefront client core.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Loopback API the shell talks to.
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8090"`

	// Marketplace backend
	BackendURL            string  `env:"BACKEND_URL,required"`
	BackendTimeoutSeconds int     `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"30"`
	RetryMax              int     `env:"RETRY_MAX" envDefault:"3"`
	RetryBackoffMs        int     `env:"RETRY_BACKOFF_MS" envDefault:"3000"`
	RateLimitRPS          float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst        int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Circuit breaker settings for backend calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Local durable state
	StateBackend    string `env:"STATE_BACKEND" envDefault:"sqlite"`
	StateSQLitePath string `env:"STATE_SQLITE_PATH" envDefault:"storefront.db"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass       string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	StateSecret     string `env:"STATE_SECRET" envDefault:""`

	// Promotions
	WelcomeCode        string `env:"WELCOME_CODE" envDefault:"BIENVENUE"`
	WelcomeDiscountCap int64  `env:"WELCOME_DISCOUNT_CAP" envDefault:"2000"`

	// Card processor
	PaymentProcessor      string `env:"PAYMENT_PROCESSOR" envDefault:"mock"`
	PaymentProcessorURL   string `env:"PAYMENT_PROCESSOR_URL" envDefault:"https://api.stripe.com"`
	PaymentPublishableKey string `env:"PAYMENT_PUBLISHABLE_KEY" envDefault:""`

	// Checkout
	ConfirmationRedirectSeconds int `env:"CONFIRMATION_REDIRECT_SECONDS" envDefault:"5"`

	// Kafka telemetry. Empty disables events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.ParseRequestURI(c.BackendURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL %q", c.BackendURL)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RETRY_MAX must not be negative, got %d", c.RetryMax)
	}
	if c.RetryBackoffMs < 0 {
		return fmt.Errorf("RETRY_BACKOFF_MS must not be negative, got %d", c.RetryBackoffMs)
	}
	switch c.StateBackend {
	case StateSQLite:
		if c.StateSQLitePath == "" {
			return fmt.Errorf("STATE_SQLITE_PATH is required")
		}
	case StateRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", StateSQLite, StateRedis, c.StateBackend)
	}
	switch c.PaymentProcessor {
	case ProcessorMock:
	case ProcessorStripe:
		if c.PaymentPublishableKey == "" {
			return fmt.Errorf("PAYMENT_PUBLISHABLE_KEY is required for the stripe processor")
		}
		if _, err := url.ParseRequestURI(c.PaymentProcessorURL); err != nil {
			return fmt.Errorf("invalid PAYMENT_PROCESSOR_URL %q: %w", c.PaymentProcessorURL, err)
		}
	default:
		return fmt.Errorf("PAYMENT_PROCESSOR must be %q or %q, got %q", ProcessorMock, ProcessorStripe, c.PaymentProcessor)
	}
	if c.WelcomeDiscountCap < 0 {
		return fmt.Errorf("WELCOME_DISCOUNT_CAP must not be negative")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// BackendTimeout returns the per-request backend timeout.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

// RetryBackoff returns the base step of the linear retry schedule.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// ConfirmationRedirect is how long the confirmation screen stays up.
func (c *Config) ConfirmationRedirect() time.Duration {
	return time.Duration(c.ConfirmationRedirectSeconds) * time.Second
}

// TelemetryEnabled reports whether checkout events are sent to Kafka.
func (c *Config) TelemetryEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
