package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/validator"
)

func validDelivery() DeliveryInfo {
	return DeliveryInfo{
		Name:     "Aïcha Issoufou",
		Email:    "aicha@example.com",
		Phone:    "+227 90 12 34 56",
		Region:   "Niamey",
		Locality: "Plateau",
	}
}

func TestDeliveryStage_Submit(t *testing.T) {
	pay, err := DeliveryStage{}.Submit(validDelivery())
	require.NoError(t, err)
	assert.Equal(t, "Plateau", pay.Delivery.Locality)
	assert.Equal(t, PaymentCard, pay.Method)
}

func TestDeliveryStage_SubmitRejectsInvalidFields(t *testing.T) {
	info := validDelivery()
	info.Email = "aicha@"
	info.Phone = "9012"
	info.Locality = ""

	_, err := DeliveryStage{}.Submit(info)

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "locality")
	assert.NotContains(t, fields, "name")
}

func TestPaymentStage_BackKeepsDelivery(t *testing.T) {
	pay, err := DeliveryStage{}.Submit(validDelivery())
	require.NoError(t, err)

	back := pay.Back()
	assert.Equal(t, validDelivery(), back.Info)
}

func TestPaymentStage_ConfirmRequiresReceipt(t *testing.T) {
	pay, err := DeliveryStage{}.Submit(validDelivery())
	require.NoError(t, err)

	_, err = pay.Confirm(PaymentReceipt{Method: PaymentCard, OrderID: "o1"})
	assert.ErrorIs(t, err, ErrReceiptNotConfirmed)

	_, err = pay.Confirm(CashOnDeliveryReceipt("o1", "ref", 100, time.Now()))
	assert.ErrorIs(t, err, ErrMethodMismatch)

	done, err := pay.Confirm(CardReceipt("o1", "ref", "pi_1", 100, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "o1", done.Receipt.OrderID)
	assert.Equal(t, validDelivery(), done.Delivery)
}

func TestPaymentStage_ConfirmCashOnDelivery(t *testing.T) {
	pay := PaymentStage{Delivery: validDelivery(), Method: PaymentCashOnDelivery}

	done, err := pay.Confirm(CashOnDeliveryReceipt("o2", "ref", 110, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, PaymentCashOnDelivery, done.Receipt.Method)
}

func TestCardDetails_Validation(t *testing.T) {
	card := CardDetails{Number: "4242 4242 4242 4242", Expiry: "01/20", CVC: "12", HolderName: ""}

	var valErr *validator.ValidationError
	require.ErrorAs(t, validator.Validate(card), &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "expiry")
	assert.Contains(t, fields, "cvc")
	assert.Contains(t, fields, "holder_name")
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(110, 20, 1500, false)
	assert.Equal(t, int64(1590), got.Total)

	overDiscounted := ComputeTotals(100, 500, 1000, false)
	assert.Equal(t, int64(1000), overDiscounted.Total)

	pending := ComputeTotals(110, 0, 0, true)
	assert.Equal(t, int64(110), pending.Total)
	assert.True(t, pending.ShippingPending)
}
