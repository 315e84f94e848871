package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
)

// StripeProcessor confirms intents through Stripe's REST API with the
// publishable key, the way the mobile SDK does.
type StripeProcessor struct {
	http           httpclient.Doer
	baseURL        string
	publishableKey string
}

// NewStripeProcessor creates a Stripe-backed processor.
func NewStripeProcessor(doer httpclient.Doer, baseURL, publishableKey string) *StripeProcessor {
	return &StripeProcessor{
		http:           doer,
		baseURL:        strings.TrimRight(baseURL, "/"),
		publishableKey: publishableKey,
	}
}

type stripeIntent struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type stripeError struct {
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func confirmForm(clientSecret string, card domain.CardDetails, billing BillingDetails) url.Values {
	month, year, _ := strings.Cut(card.Expiry, "/")

	form := url.Values{}
	form.Set("client_secret", clientSecret)
	form.Set("payment_method_data[type]", "card")
	form.Set("payment_method_data[card][number]", cardDigits(card.Number))
	form.Set("payment_method_data[card][exp_month]", month)
	form.Set("payment_method_data[card][exp_year]", year)
	form.Set("payment_method_data[card][cvc]", card.CVC)
	form.Set("payment_method_data[billing_details][name]", billing.Name)
	form.Set("payment_method_data[billing_details][email]", billing.Email)
	form.Set("payment_method_data[billing_details][phone]", billing.Phone)
	form.Set("payment_method_data[billing_details][address][state]", billing.Region)
	form.Set("payment_method_data[billing_details][address][city]", billing.Locality)
	if billing.Address != "" {
		form.Set("payment_method_data[billing_details][address][line1]", billing.Address)
	}
	return form
}

func (p *StripeProcessor) ConfirmCardPayment(ctx context.Context, clientSecret string, card domain.CardDetails, billing BillingDetails) (*Confirmation, error) {
	id := intentID(clientSecret)
	if id == "" || id == clientSecret {
		return nil, apperrors.InvalidInput("malformed payment intent secret")
	}

	body := confirmForm(clientSecret, card, billing).Encode()
	endpoint := p.baseURL + "/v1/payment_intents/" + url.PathEscape(id) + "/confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.publishableKey)

	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call payment processor: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, httpclient.ParseResponseError(resp, "payment processor")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read processor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var se stripeError
		if json.Unmarshal(data, &se) == nil && se.Error != nil && se.Error.Message != "" {
			return nil, apperrors.PaymentFailed(se.Error.Message)
		}
		return nil, apperrors.PaymentFailed(http.StatusText(resp.StatusCode))
	}

	var intent stripeIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}
	if intent.Status != StatusSucceeded {
		if intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
			return nil, apperrors.PaymentFailed(intent.LastPaymentError.Message)
		}
		return nil, apperrors.PaymentFailed(fmt.Sprintf("payment was not completed (status %s)", intent.Status))
	}
	return &Confirmation{IntentID: intent.ID, Status: intent.Status}, nil
}
