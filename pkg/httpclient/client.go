package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
)

// Doer executes an HTTP request. Client, AuthDoer and CircuitBreakerClient
// all satisfy it so they can be stacked.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// RetryPolicy describes which responses are retried and how long to wait.
// The wait before retry n (1-based) is n × Backoff.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	RetryOn    func(status int) bool
}

// DefaultRetryPolicy retries a 502 up to three times, waiting 3s, 6s then 9s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Backoff:    3 * time.Second,
		RetryOn:    RetryOnBadGateway,
	}
}

// RetryOnBadGateway matches the "upstream restarting" status only.
func RetryOnBadGateway(status int) bool {
	return status == http.StatusBadGateway
}

// Delay returns the wait before the given retry (1-based).
func (p RetryPolicy) Delay(retry int) time.Duration {
	return time.Duration(retry) * p.Backoff
}

func (p RetryPolicy) shouldRetry(status int) bool {
	if p.RetryOn == nil {
		return RetryOnBadGateway(status)
	}
	return p.RetryOn(status)
}

// Config holds HTTP client configuration
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	Retry           RetryPolicy

	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int

	// Sleep waits between retries. Nil means a real timer.
	Sleep SleepFunc
}

// DefaultConfig returns sensible defaults for HTTP client
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxConnsPerHost: 100,
		Retry:           DefaultRetryPolicy(),
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	clientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Total number of outbound backend requests by method and status code",
		},
		[]string{"method", "status"},
	)

	clientRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_retries_total",
			Help: "Total number of retried backend requests by status code",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(clientRequestsTotal)
	prometheus.MustRegister(clientRetriesTotal)
}

// Client wraps http.Client with a stateless retry decorator, an optional
// rate limiter and OpenTelemetry transport instrumentation.
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *rate.Limiter
	sleep      SleepFunc
}

// New creates a new HTTP client with retry and connection pooling
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		sleep:  sleepContext,
	}
	if cfg.Sleep != nil {
		c.sleep = cfg.Sleep
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	return c
}

// Do executes the request, retrying responses the policy matches. When
// retries are exhausted the last response is discarded and the returned
// error wraps apperrors.ErrServiceUnavail. Transport errors and any other
// status are returned to the caller without retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	policy := c.config.Retry

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, policy.Delay(attempt)); err != nil {
				return nil, err
			}
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			clientRequestsTotal.WithLabelValues(req.Method, "error").Inc()
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		}
		status := strconv.Itoa(resp.StatusCode)
		clientRequestsTotal.WithLabelValues(req.Method, status).Inc()

		if !policy.shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		drain(resp)
		if attempt >= policy.MaxRetries {
			return nil, fmt.Errorf("%s %s: status %d after %d retries: %w",
				req.Method, req.URL.Path, resp.StatusCode, attempt, apperrors.ErrServiceUnavail)
		}
		clientRetriesTotal.WithLabelValues(status).Inc()
	}
}

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return fmt.Errorf("%s %s: request body cannot be replayed", req.Method, req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
