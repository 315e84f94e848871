package service

import (
	"context"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/backend"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

// AuthBackend exchanges credentials for a session.
type AuthBackend interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Session, error)
}

// CatalogBackend serves products, categories, favorites and order history.
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListFavorites(ctx context.Context, userID string) ([]domain.Product, error)
	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) error
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// ShippingBackend prices shipments.
type ShippingBackend interface {
	ListZones(ctx context.Context) ([]domain.ShippingZone, error)
	EstimateShipping(ctx context.Context, items []domain.CartItem, zone domain.ShippingZone, subtotal int64) (*backend.Estimate, error)
}

// PromoBackend validates promo codes.
type PromoBackend interface {
	ValidatePromo(ctx context.Context, code string, welcome bool, userID string) (*backend.PromoValidation, error)
}

// OrderBackend creates draft orders and payment intents.
type OrderBackend interface {
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (string, error)
	UpdateOrder(ctx context.Context, id string, draft *domain.OrderDraft) (string, error)
	CreatePaymentIntent(ctx context.Context, orderID, email, userID string) (*backend.PaymentIntent, error)
}
