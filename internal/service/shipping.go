package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
)

// ErrShippingUnavailable marks a failed estimate. The fee is then unknown,
// not zero, and the buyer is offered a retry.
var ErrShippingUnavailable = errors.New("shipping estimate unavailable")

const shippingRetryMessage = "shipping cost could not be computed, please retry"

// ShippingService lists zones and prices the cart for one of them.
type ShippingService struct {
	backend ShippingBackend
	logger  *slog.Logger
	now     func() time.Time
}

// NewShippingService creates a new shipping service.
func NewShippingService(backend ShippingBackend, logger *slog.Logger) *ShippingService {
	return &ShippingService{backend: backend, logger: logger, now: time.Now}
}

// ListZones returns the shipping zones.
func (s *ShippingService) ListZones(ctx context.Context) ([]domain.ShippingZone, error) {
	zones, err := s.backend.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}
	return zones, nil
}

// FindZone returns the zone with id.
func (s *ShippingService) FindZone(ctx context.Context, id string) (*domain.ShippingZone, error) {
	zones, err := s.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		if z.ID == id {
			return &z, nil
		}
	}
	return nil, apperrors.NotFound("shipping zone", id)
}

// Estimate prices cart for zone. The backend is sent the subtotal before
// any promo discount. Any failure yields no quote and an error matching
// ErrShippingUnavailable.
func (s *ShippingService) Estimate(ctx context.Context, cart *domain.Cart, zone domain.ShippingZone) (*domain.ShippingQuote, error) {
	if cart.IsEmpty() {
		return nil, apperrors.BusinessRule("your cart is empty")
	}

	subtotal := cart.Subtotal()
	est, err := s.backend.EstimateShipping(ctx, cart.Items, zone, subtotal)
	if err != nil {
		s.logger.WarnContext(ctx, "shipping estimate failed",
			slog.String("zone_id", zone.ID),
			slog.Int64("subtotal", subtotal),
			slog.String("error", err.Error()),
		)
		return nil, &apperrors.AppError{
			Code:    "SHIPPING_UNAVAILABLE",
			Message: shippingRetryMessage,
			Status:  http.StatusServiceUnavailable,
			Err:     fmt.Errorf("%w: %w", ErrShippingUnavailable, err),
		}
	}

	base := min(zone.BaseFee, est.TotalCost)
	quote := &domain.ShippingQuote{
		ZoneID:      zone.ID,
		BaseFee:     base,
		WeightFee:   max(0, est.TotalCost-base),
		TotalCost:   est.TotalCost,
		TotalWeight: est.TotalWeight,
		CartDigest:  cart.Digest(),
		ComputedAt:  s.now().UTC(),
	}

	s.logger.InfoContext(ctx, "shipping estimated",
		slog.String("zone_id", zone.ID),
		slog.Int64("total_cost", quote.TotalCost),
		slog.Float64("total_weight", quote.TotalWeight),
	)
	return quote, nil
}
