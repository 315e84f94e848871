package domain

import (
	"errors"
	"time"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/validator"
)

// Step names the checkout stage the buyer is on.
type Step string

const (
	StepDelivery     Step = "delivery"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// PaymentMethod selects how the order is paid.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// DeliveryInfo is the buyer and address data captured on the delivery step.
type DeliveryInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Region   string `json:"region" validate:"required"`
	Locality string `json:"locality" validate:"required"`
	Address  string `json:"address,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CardDetails is the card captured on the payment step. It is handed to the
// processor and never persisted.
type CardDetails struct {
	Number     string `json:"number" validate:"required,credit_card"`
	Expiry     string `json:"expiry" validate:"required,cardexpiry"`
	CVC        string `json:"cvc" validate:"required,numeric,min=3,max=4"`
	HolderName string `json:"holder_name" validate:"required"`
}

// PaymentReceipt proves an order was placed and, for cards, paid.
// Receipts are only built by CardReceipt and CashOnDeliveryReceipt.
type PaymentReceipt struct {
	Method      PaymentMethod `json:"method"`
	OrderID     string        `json:"order_id"`
	Reference   string        `json:"reference"`
	IntentID    string        `json:"intent_id,omitempty"`
	Amount      int64         `json:"amount"`
	ConfirmedAt time.Time     `json:"confirmed_at"`

	confirmed bool
}

// CardReceipt records a payment intent the processor reported as succeeded.
func CardReceipt(orderID, reference, intentID string, amount int64, at time.Time) PaymentReceipt {
	return PaymentReceipt{
		Method:      PaymentCard,
		OrderID:     orderID,
		Reference:   reference,
		IntentID:    intentID,
		Amount:      amount,
		ConfirmedAt: at,
		confirmed:   true,
	}
}

// CashOnDeliveryReceipt records an order placed for payment on delivery.
func CashOnDeliveryReceipt(orderID, reference string, amount int64, at time.Time) PaymentReceipt {
	return PaymentReceipt{
		Method:      PaymentCashOnDelivery,
		OrderID:     orderID,
		Reference:   reference,
		Amount:      amount,
		ConfirmedAt: at,
		confirmed:   true,
	}
}

// Stage transition errors.
var (
	ErrReceiptNotConfirmed = errors.New("payment has not been confirmed")
	ErrMethodMismatch      = errors.New("receipt does not match the selected payment method")
)

// DeliveryStage is the first checkout step.
type DeliveryStage struct {
	Info DeliveryInfo
}

// Submit validates the delivery data and moves to the payment step.
func (d DeliveryStage) Submit(info DeliveryInfo) (PaymentStage, error) {
	if err := validator.Validate(info); err != nil {
		return PaymentStage{}, err
	}
	return PaymentStage{Delivery: info, Method: PaymentCard}, nil
}

// PaymentStage holds validated delivery data while payment is captured.
type PaymentStage struct {
	Delivery DeliveryInfo
	Method   PaymentMethod
}

// Back returns to the delivery step with the captured data intact.
func (p PaymentStage) Back() DeliveryStage {
	return DeliveryStage{Info: p.Delivery}
}

// Confirm ends checkout. Only a receipt produced after a successful
// placement is accepted.
func (p PaymentStage) Confirm(receipt PaymentReceipt) (ConfirmationStage, error) {
	if !receipt.confirmed || receipt.OrderID == "" {
		return ConfirmationStage{}, ErrReceiptNotConfirmed
	}
	if receipt.Method != p.Method {
		return ConfirmationStage{}, ErrMethodMismatch
	}
	return ConfirmationStage{Delivery: p.Delivery, Receipt: receipt}, nil
}

// ConfirmationStage is terminal.
type ConfirmationStage struct {
	Delivery DeliveryInfo
	Receipt  PaymentReceipt
}

// Totals is the price breakdown shown on checkout.
type Totals struct {
	Subtotal        int64 `json:"subtotal"`
	Discount        int64 `json:"discount"`
	Shipping        int64 `json:"shipping"`
	Total           int64 `json:"total"`
	ShippingPending bool  `json:"shipping_pending"`
}

// ComputeTotals subtracts the discount from the subtotal, never going below
// zero, then adds shipping.
func ComputeTotals(subtotal, discount, shipping int64, shippingPending bool) Totals {
	return Totals{
		Subtotal:        subtotal,
		Discount:        discount,
		Shipping:        shipping,
		Total:           max(0, subtotal-discount) + shipping,
		ShippingPending: shippingPending,
	}
}
