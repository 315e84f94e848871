package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/backend"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/config"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/event"
	handler "github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/handler/http"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/payment"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	redisrepo "github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository/redis"
	sqliterepo "github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository/sqlite"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/database"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/health"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
	pkgkafka "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/kafka"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/middleware"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/secure"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/tracing"
)

const sessionSealPurpose = "storefront session token"

// App wires together all dependencies and runs the storefront client core.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	db             *sql.DB
	rdb            *redis.Client
	publisher      pkgkafka.Publisher
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies
// and restoring the state saved by the previous run.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Local durable state.
	store, err := a.openStore(ctx)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	state := repository.NewState(store)

	var sessions repository.SessionRepository = state
	if cfg.StateSecret != "" {
		sealer, err := secure.NewSealer(cfg.StateSecret, sessionSealPurpose)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("create session sealer: %w", err)
		}
		sessions = repository.NewSealedSessions(state, sealer)
	} else {
		logger.Warn("STATE_SECRET is empty, the session token is stored unsealed")
	}

	// Checkout telemetry. Without brokers events are dropped.
	var producer *pkgkafka.Producer
	a.publisher = pkgkafka.Discard{}
	if cfg.TelemetryEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(a.publisher, logger)
	inbox := notify.NewInbox(notify.DefaultCapacity)

	// Backend transport: retry, then circuit breaker, then bearer token.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout(),
		MaxConnsPerHost: 10,
		Retry: httpclient.RetryPolicy{
			MaxRetries: cfg.RetryMax,
			Backoff:    cfg.RetryBackoff(),
			RetryOn:    httpclient.RetryOnBadGateway,
		},
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		Burst:     cfg.RateLimitBurst,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "marketplace-backend",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(degradedFallback(inbox))
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
	)

	// The token source reads the session service, which is created below.
	var sessionService *service.SessionService
	token := func() string { return sessionService.Token() }
	authClient := httpclient.NewAuthDoer(cbClient, token)
	api := backend.New(authClient, cfg.BackendURL, token)

	processor, err := newProcessor(cfg)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	// Build the dependency graph.
	cartService := service.NewCartService(state, logger)
	sessionService = service.NewSessionService(api, sessions, cartService, inbox, events, logger)
	shippingService := service.NewShippingService(api, logger)
	catalogService := service.NewCatalogService(api, sessionService, logger)
	promoService := service.NewPromoService(api, sessionService, service.PromoConfig{
		WelcomeCode: cfg.WelcomeCode,
		WelcomeCap:  cfg.WelcomeDiscountCap,
	}, logger)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Cart:      cartService,
		Session:   sessionService,
		Shipping:  shippingService,
		Promo:     promoService,
		Orders:    api,
		Processor: processor,
		Repo:      state,
		Inbox:     inbox,
		Events:    events,
		Logger:    logger,
	}, cfg.ConfirmationRedirect())

	cartService.OnChange(checkoutService.CartChanged)
	sessionService.OnChange(checkoutService.SessionChanged)
	authClient.OnUnauthorized(sessionService.Expire)

	// Restore what the previous run left behind. Nothing here is fatal:
	// the buyer starts over from an empty cart at worst.
	if err := sessionService.Restore(ctx); err != nil {
		logger.Warn("session not restored", slog.String("error", err.Error()))
	}
	if err := cartService.Load(ctx); err != nil {
		logger.Warn("cart not restored", slog.String("error", err.Error()))
	}
	if err := checkoutService.Restore(ctx); err != nil {
		logger.Warn("checkout not restored", slog.String("error", err.Error()))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("state", state.Ping)
	healthHandler.RegisterOptional("backend", api.Ping)
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Session:  sessionService,
		Cart:     cartService,
		Catalog:  catalogService,
		Shipping: shippingService,
		Checkout: checkoutService,
		Inbox:    inbox,
	}, healthHandler, middleware.DefaultCORSConfig(), logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// openStore opens the configured state backend and migrates it.
func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	switch a.cfg.StateBackend {
	case config.StateRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPass,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		return redisrepo.NewStore(rdb, ""), nil

	default:
		db, err := database.OpenSQLite(ctx, database.DefaultSQLiteConfig(a.cfg.StateSQLitePath))
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := sqliterepo.Migrate(ctx, db, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("local state opened", slog.String("path", a.cfg.StateSQLitePath))

		if err := prometheus.Register(collectors.NewDBStatsCollector(db, "storefront_state")); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("register db stats collector: %w", err)
			}
		}
		return sqliterepo.NewStore(db), nil
	}
}

// degradedFallback tells the buyer the marketplace is unreachable while the
// breaker is open. The request still fails as service unavailable.
func degradedFallback(inbox *notify.Inbox) httpclient.FallbackFunc {
	return func(ctx context.Context, err error) (*http.Response, error) {
		inbox.Push(notify.KindServiceDegraded, "the marketplace is unreachable, please try again in a moment", "")
		return nil, fmt.Errorf("marketplace-backend: %w: %w", err, apperrors.ErrServiceUnavail)
	}
}

func newProcessor(cfg *config.Config) (payment.Processor, error) {
	switch cfg.PaymentProcessor {
	case config.ProcessorStripe:
		doer := httpclient.New(httpclient.Config{
			Timeout:         cfg.BackendTimeout(),
			MaxConnsPerHost: 4,
		})
		return payment.NewStripeProcessor(doer, cfg.PaymentProcessorURL, cfg.PaymentPublishableKey), nil
	case config.ProcessorMock:
		return payment.NewMockProcessor(), nil
	default:
		return nil, fmt.Errorf("unknown payment processor %q", cfg.PaymentProcessor)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting loopback API",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline. An order
	// placement in flight finishes on its own context.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()
	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.publisher = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("sqlite close error", slog.String("error", err.Error()))
		}
		a.db = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.tracerShutdown = nil
	}
}
