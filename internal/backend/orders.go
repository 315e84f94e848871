package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

func errMissingField(field string) error {
	return fmt.Errorf("%s response is missing %q", serviceName, field)
}

// orderRef accepts both identifier spellings the backend uses.
type orderRef struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
}

func (r orderRef) id() string {
	if r.MongoID != "" {
		return r.MongoID
	}
	return r.ID
}

type orderDTO struct {
	orderRef
	Reference     string             `json:"reference"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	Lines         []domain.OrderLine `json:"lines"`
	Total         int64              `json:"total"`
	ShippingFee   int64              `json:"shipping_fee"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func (o orderDTO) toDomain() domain.Order {
	return domain.Order{
		ID:            o.id(),
		Reference:     o.Reference,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Lines:         o.Lines,
		Total:         o.Total,
		ShippingFee:   o.ShippingFee,
		CreatedAt:     o.CreatedAt,
	}
}

// CreateOrder posts a new draft order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (string, error) {
	var resp orderRef
	if err := c.callAuth(ctx, http.MethodPost, "/orders", draft, &resp); err != nil {
		return "", err
	}
	if resp.id() == "" {
		return "", errMissingField("_id")
	}
	return resp.id(), nil
}

// UpdateOrder replaces the draft order id.
func (c *Client) UpdateOrder(ctx context.Context, id string, draft *domain.OrderDraft) (string, error) {
	var resp orderRef
	if err := c.callAuth(ctx, http.MethodPut, "/orders/"+url.PathEscape(id), draft, &resp); err != nil {
		return "", err
	}
	if resp.id() == "" {
		return id, nil
	}
	return resp.id(), nil
}

// ListOrders returns the orders of userID, newest first as sent.
func (c *Client) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var dtos []orderDTO
	if err := c.callAuth(ctx, http.MethodGet, "/orders/user/"+url.PathEscape(userID), nil, &dtos); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(dtos))
	for i, d := range dtos {
		orders[i] = d.toDomain()
	}
	return orders, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var dto orderDTO
	if err := c.callAuth(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	if dto.id() == "" {
		return nil, errMissingField("_id")
	}
	o := dto.toDomain()
	return &o, nil
}
