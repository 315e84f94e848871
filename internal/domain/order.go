package domain

import "time"

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment status constants.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOnCOD   = "on_delivery"
)

// OrderLine is a purchased line inside an order.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// OrderDraft is the payload sent when creating or updating a draft order.
type OrderDraft struct {
	UserID        string        `json:"user_id"`
	Reference     string        `json:"reference"`
	Delivery      DeliveryInfo  `json:"delivery"`
	Lines         []OrderLine   `json:"lines"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	PromoCode     string        `json:"promo_code,omitempty"`
	ShippingZone  string        `json:"shipping_zone"`
	ShippingFee   int64         `json:"shipping_fee"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"payment_status"`
}

// Order is an order as returned by the backend for tracking.
type Order struct {
	ID            string      `json:"id"`
	Reference     string      `json:"reference"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"payment_status"`
	Lines         []OrderLine `json:"lines"`
	Total         int64       `json:"total"`
	ShippingFee   int64       `json:"shipping_fee"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PendingOrder links a draft order to a payment not confirmed yet. While
// it exists, retries update the same order instead of creating another.
type PendingOrder struct {
	OrderID   string    `json:"order_id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// LinesFromCart converts cart lines to order lines at their current price.
func LinesFromCart(c *Cart) []OrderLine {
	lines := make([]OrderLine, len(c.Items))
	for i, item := range c.Items {
		lines[i] = OrderLine{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.EffectivePrice(),
			Color:     item.Color,
			Size:      item.Size,
			ImageURL:  item.Product.ImageURL,
		}
	}
	return lines
}
