package payment

import (
	"context"
	"sync"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
)

// Test card numbers the mock processor declines, with their message.
var mockDeclines = map[string]string{
	"4000000000000002": "Your card was declined.",
	"4000000000009995": "Your card has insufficient funds.",
	"4000000000000069": "Your card has expired.",
}

// MockProcessor approves every card except the well-known decline numbers.
// It backs development builds and tests.
type MockProcessor struct {
	mu        sync.Mutex
	confirmed []string
}

// NewMockProcessor creates a mock processor.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

func (m *MockProcessor) ConfirmCardPayment(ctx context.Context, clientSecret string, card domain.CardDetails, _ BillingDetails) (*Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg, ok := mockDeclines[cardDigits(card.Number)]; ok {
		return nil, apperrors.PaymentFailed(msg)
	}

	id := intentID(clientSecret)
	m.mu.Lock()
	m.confirmed = append(m.confirmed, id)
	m.mu.Unlock()

	return &Confirmation{IntentID: id, Status: StatusSucceeded}, nil
}

// Confirmed lists the intents confirmed so far.
func (m *MockProcessor) Confirmed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.confirmed))
	copy(out, m.confirmed)
	return out
}
