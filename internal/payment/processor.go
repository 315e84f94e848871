// Package payment confirms payment intents with the card processor.
package payment

import (
	"context"
	"strings"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

// StatusSucceeded is the only intent status that counts as paid.
const StatusSucceeded = "succeeded"

// BillingDetails accompanies the card on confirmation.
type BillingDetails struct {
	Name     string
	Email    string
	Phone    string
	Region   string
	Locality string
	Address  string
}

// BillingFromDelivery reuses the delivery data as billing details.
func BillingFromDelivery(info domain.DeliveryInfo) BillingDetails {
	return BillingDetails{
		Name:     info.Name,
		Email:    info.Email,
		Phone:    info.Phone,
		Region:   info.Region,
		Locality: info.Locality,
		Address:  info.Address,
	}
}

// Confirmation is the processor's answer for a confirmed intent.
type Confirmation struct {
	IntentID string
	Status   string
}

// Processor confirms a payment intent with card details. A decline is
// returned as an apperrors PaymentFailed carrying the processor's message.
type Processor interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string, card domain.CardDetails, billing BillingDetails) (*Confirmation, error)
}

func intentID(clientSecret string) string {
	id, _, _ := strings.Cut(clientSecret, "_secret_")
	return id
}

func cardDigits(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}
