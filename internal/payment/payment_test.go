package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
)

var testCard = domain.CardDetails{Number: "4242 4242 4242 4242", Expiry: "12/29", CVC: "123", HolderName: "Aïcha"}

var testBilling = BillingDetails{Name: "Aïcha", Email: "aicha@example.com", Phone: "+22790123456", Region: "Niamey", Locality: "Plateau"}

func newStripe(t *testing.T, h http.HandlerFunc) *StripeProcessor {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	doer := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, Retry: httpclient.RetryPolicy{MaxRetries: 0}})
	return NewStripeProcessor(doer, srv.URL, "pk_test_123")
}

func TestStripe_ConfirmSucceeded(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1/confirm", r.URL.Path)
		assert.Equal(t, "Bearer pk_test_123", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		assert.Equal(t, "pi_1_secret_xyz", form.Get("client_secret"))
		assert.Equal(t, "4242424242424242", form.Get("payment_method_data[card][number]"))
		assert.Equal(t, "12", form.Get("payment_method_data[card][exp_month]"))
		assert.Equal(t, "29", form.Get("payment_method_data[card][exp_year]"))
		assert.Equal(t, "Plateau", form.Get("payment_method_data[billing_details][address][city]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_1","status":"succeeded"}`)
	})

	conf, err := p.ConfirmCardPayment(context.Background(), "pi_1_secret_xyz", testCard, testBilling)
	require.NoError(t, err)
	assert.Equal(t, &Confirmation{IntentID: "pi_1", Status: StatusSucceeded}, conf)
}

func TestStripe_DeclineMessageVerbatim(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	})

	_, err := p.ConfirmCardPayment(context.Background(), "pi_1_secret_xyz", testCard, testBilling)
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Equal(t, "Your card was declined.", apperrors.UserMessage(err))
}

func TestStripe_NotSucceeded(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"pi_1","status":"requires_action"}`)
	})

	_, err := p.ConfirmCardPayment(context.Background(), "pi_1_secret_xyz", testCard, testBilling)
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Contains(t, apperrors.UserMessage(err), "requires_action")
}

func TestStripe_ServerError(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.ConfirmCardPayment(context.Background(), "pi_1_secret_xyz", testCard, testBilling)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestStripe_MalformedSecret(t *testing.T) {
	p := newStripe(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := p.ConfirmCardPayment(context.Background(), "garbage", testCard, testBilling)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMockProcessor(t *testing.T) {
	m := NewMockProcessor()
	ctx := context.Background()

	conf, err := m.ConfirmCardPayment(ctx, "pi_9_secret_s", testCard, testBilling)
	require.NoError(t, err)
	assert.Equal(t, "pi_9", conf.IntentID)
	assert.Equal(t, []string{"pi_9"}, m.Confirmed())

	declined := testCard
	declined.Number = "4000 0000 0000 0002"
	_, err = m.ConfirmCardPayment(ctx, "pi_10_secret_s", declined, testBilling)
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	assert.Equal(t, "Your card was declined.", apperrors.UserMessage(err))
	assert.Len(t, m.Confirmed(), 1)
}

func TestBillingFromDelivery(t *testing.T) {
	b := BillingFromDelivery(domain.DeliveryInfo{Name: "N", Email: "e", Phone: "p", Region: "r", Locality: "l", Address: "a"})
	assert.Equal(t, BillingDetails{Name: "N", Email: "e", Phone: "p", Region: "r", Locality: "l", Address: "a"}, b)
}
