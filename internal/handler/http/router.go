package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/health"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/middleware"
)

// Services groups what the loopback API exposes to the shell.
type Services struct {
	Session  *service.SessionService
	Cart     *service.CartService
	Catalog  *service.CatalogService
	Shipping *service.ShippingService
	Checkout *service.CheckoutService
	Inbox    *notify.Inbox
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, cors middleware.CORSConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	signedIn := func(ctx context.Context) bool { return svc.Session.Current().Authenticated() }
	userID := func(ctx context.Context) string { return svc.Session.UserID() }

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(chimw.Compress(5))
	// Covers three 502 retries (3s + 6s + 9s) plus the calls themselves.
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger, userID))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	sessionHandler := NewSessionHandler(svc.Session, logger)
	catalogHandler := NewCatalogHandler(svc.Catalog, svc.Shipping, logger)
	cartHandler := NewCartHandler(svc.Cart, svc.Catalog, logger)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, logger)
	noticeHandler := NewNoticeHandler(svc.Inbox)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/shipping/zones", catalogHandler.ListZones)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/session", sessionHandler.Current)
			r.Post("/session/login", sessionHandler.Login)
			r.Post("/session/register", sessionHandler.Register)
			r.Delete("/session", sessionHandler.Logout)

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items", cartHandler.UpdateItemQuantity)
			r.Delete("/cart/items", cartHandler.RemoveItem)

			r.Get("/notices", noticeHandler.Drain)

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", checkoutHandler.GetState)
				r.Post("/promo", checkoutHandler.ApplyPromo)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSession(signedIn))
					r.Post("/begin", checkoutHandler.Begin)
					r.Put("/zone", checkoutHandler.SelectZone)
					r.Post("/shipping/retry", checkoutHandler.RetryShipping)
					r.Delete("/promo", checkoutHandler.RemovePromo)
					r.Put("/delivery", checkoutHandler.SubmitDelivery)
					r.Post("/back", checkoutHandler.Back)
					r.Post("/confirm", checkoutHandler.Confirm)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(signedIn))
				r.Get("/favorites", catalogHandler.ListFavorites)
				r.Post("/favorites", catalogHandler.AddFavorite)
				r.Delete("/favorites/{productId}", catalogHandler.RemoveFavorite)
				r.Get("/orders", catalogHandler.ListOrders)
				r.Get("/orders/{id}", catalogHandler.GetOrder)
			})
		})
	})

	return r
}
