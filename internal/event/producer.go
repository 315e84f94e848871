package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	pkgkafka "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/kafka"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/logger"
)

// Kafka topic constants for storefront telemetry.
const (
	TopicCheckoutCompleted = "storefront.checkout.completed"
	TopicCheckoutFailed    = "storefront.checkout.failed"
	TopicSessionExpired    = "storefront.session.expired"
	TopicCartCleared       = "storefront.cart.cleared"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeSession = "session"
	AggregateTypeCart    = "cart"
)

// SourceStorefront identifies events emitted by the storefront client.
const SourceStorefront = "storefront-client"

// CheckoutCompletedData is the payload for checkout.completed.
type CheckoutCompletedData struct {
	OrderID   string               `json:"order_id"`
	Reference string               `json:"reference"`
	UserID    string               `json:"user_id"`
	Method    domain.PaymentMethod `json:"method"`
	Subtotal  int64                `json:"subtotal"`
	Discount  int64                `json:"discount"`
	Shipping  int64                `json:"shipping"`
	Total     int64                `json:"total"`
	ItemCount int                  `json:"item_count"`
}

// CheckoutFailedData is the payload for checkout.failed.
type CheckoutFailedData struct {
	OrderID   string `json:"order_id,omitempty"`
	Reference string `json:"reference,omitempty"`
	UserID    string `json:"user_id"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

// SessionExpiredData is the payload for session.expired.
type SessionExpiredData struct {
	UserID string `json:"user_id"`
}

// CartClearedData is the payload for cart.cleared.
type CartClearedData struct {
	UserID string `json:"user_id,omitempty"`
	Reason string `json:"reason"`
}

// Producer publishes storefront telemetry. Publishing is best effort:
// callers log failures and carry on.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a telemetry producer. A nil publisher discards events.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	if publisher == nil {
		publisher = pkgkafka.Discard{}
	}
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if ref := logger.OrderReferenceFromContext(ctx); ref != "" {
		evt.WithMetadata("order_ref", ref)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error {
	return p.publish(ctx, TopicCheckoutCompleted, data.OrderID, AggregateTypeOrder, data)
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, data CheckoutFailedData) error {
	aggregateID := data.OrderID
	if aggregateID == "" {
		aggregateID = data.UserID
	}
	return p.publish(ctx, TopicCheckoutFailed, aggregateID, AggregateTypeOrder, data)
}

// PublishSessionExpired publishes a session.expired event.
func (p *Producer) PublishSessionExpired(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicSessionExpired, userID, AggregateTypeSession, SessionExpiredData{UserID: userID})
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID, reason string) error {
	return p.publish(ctx, TopicCartCleared, userID, AggregateTypeCart, CartClearedData{UserID: userID, Reason: reason})
}

// Close flushes and closes the publisher.
func (p *Producer) Close() error {
	return p.publisher.Close()
}
