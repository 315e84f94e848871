package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.kassarmou.test/api")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, 3, cfg.RetryMax)
	assert.Equal(t, 3*time.Second, cfg.RetryBackoff())
	assert.Equal(t, StateSQLite, cfg.StateBackend)
	assert.Equal(t, int64(2000), cfg.WelcomeDiscountCap)
	assert.Equal(t, ProcessorMock, cfg.PaymentProcessor)
	assert.Equal(t, 5*time.Second, cfg.ConfirmationRedirect())
	assert.False(t, cfg.TelemetryEnabled())
}

func TestLoad_MissingBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.kassarmou.test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.TelemetryEnabled())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTPPort:           8090,
			BackendURL:         "https://api.kassarmou.test",
			StateBackend:       StateSQLite,
			StateSQLitePath:    "state.db",
			PaymentProcessor:   ProcessorMock,
			WelcomeDiscountCap: 2000,
			OTELSampleRate:     1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"relative backend", func(c *Config) { c.BackendURL = "/api" }, "invalid BACKEND_URL"},
		{"unknown state backend", func(c *Config) { c.StateBackend = "memcached" }, "STATE_BACKEND"},
		{"redis without addr", func(c *Config) { c.StateBackend = StateRedis; c.RedisAddr = "" }, "REDIS_ADDR"},
		{"stripe without key", func(c *Config) {
			c.PaymentProcessor = ProcessorStripe
			c.PaymentProcessorURL = "https://api.stripe.com"
		}, "PAYMENT_PUBLISHABLE_KEY"},
		{"unknown processor", func(c *Config) { c.PaymentProcessor = "paypal" }, "PAYMENT_PROCESSOR"},
		{"negative retries", func(c *Config) { c.RetryMax = -1 }, "RETRY_MAX"},
		{"sample rate", func(c *Config) { c.OTELSampleRate = 2 }, "OTEL_SAMPLE_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
