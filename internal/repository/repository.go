package repository

import (
	"context"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

// Keys of the local durable state.
const (
	KeySession      = "session"
	KeyCart         = "cart"
	KeyDelivery     = "checkout:delivery"
	KeyShipping     = "checkout:shipping"
	KeyPendingOrder = "checkout:pending_order"
)

// Store is a durable key/value store. Get returns an apperrors NotFound
// error for a missing key. Each key has a single writer at a time.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// CartRepository persists the cart between launches.
type CartRepository interface {
	// GetCart returns the stored cart, or NotFound.
	GetCart(ctx context.Context) (*domain.Cart, error)

	// SaveCart overwrites the stored cart.
	SaveCart(ctx context.Context, cart *domain.Cart) error

	// DeleteCart removes the stored cart.
	DeleteCart(ctx context.Context) error
}

// SessionRepository persists the signed-in user.
type SessionRepository interface {
	GetSession(ctx context.Context) (*domain.Session, error)
	SaveSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context) error
}

// CheckoutRepository persists the ephemeral state of one checkout attempt.
type CheckoutRepository interface {
	GetDelivery(ctx context.Context) (*domain.DeliveryInfo, error)
	SaveDelivery(ctx context.Context, info *domain.DeliveryInfo) error

	GetShipping(ctx context.Context) (*domain.ShippingSelection, error)
	SaveShipping(ctx context.Context, sel *domain.ShippingSelection) error
	DeleteShipping(ctx context.Context) error

	GetPendingOrder(ctx context.Context) (*domain.PendingOrder, error)
	SavePendingOrder(ctx context.Context, po *domain.PendingOrder) error
	DeletePendingOrder(ctx context.Context) error

	// ClearCheckout removes delivery, shipping and pending-order state.
	ClearCheckout(ctx context.Context) error
}
