package backend

import (
	"context"
	"net/http"
	"strings"
)

type intentRequest struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
	UserID  string `json:"userId"`
}

// PaymentIntent is the processor charge the backend opened for an order.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// ID extracts the intent id from the client secret ("pi_123_secret_abc").
func (p PaymentIntent) ID() string {
	id, _, _ := strings.Cut(p.ClientSecret, "_secret_")
	return id
}

// CreatePaymentIntent opens a payment intent scoped to orderID.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID, email, userID string) (*PaymentIntent, error) {
	var resp PaymentIntent
	err := c.callAuth(ctx, http.MethodPost, "/payments/intent", intentRequest{
		OrderID: orderID,
		Email:   email,
		UserID:  userID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ClientSecret == "" {
		return nil, errMissingField("clientSecret")
	}
	return &resp, nil
}
