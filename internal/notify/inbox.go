// Package notify buffers notices the shell shows to the user.
package notify

import (
	"sync"
	"time"
)

// Notice kinds.
const (
	KindSessionExpired  = "session_expired"
	KindPaymentFailed   = "payment_failed"
	KindShippingRetry   = "shipping_retry"
	KindOrderConfirmed  = "order_confirmed"
	KindServiceDegraded = "service_degraded"
)

// Notice is a single user-visible message.
type Notice struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Redirect  string    `json:"redirect,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCapacity bounds the inbox when the shell stops draining it.
const DefaultCapacity = 50

// Inbox is a bounded FIFO of notices. When full, the oldest notice is
// dropped.
type Inbox struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	now      func() time.Time
}

// NewInbox creates an inbox holding up to capacity notices.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{capacity: capacity, now: time.Now}
}

// Push appends a notice.
func (i *Inbox) Push(kind, message, redirect string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.notices) == i.capacity {
		i.notices = i.notices[1:]
	}
	i.notices = append(i.notices, Notice{
		Kind:      kind,
		Message:   message,
		Redirect:  redirect,
		CreatedAt: i.now().UTC(),
	})
}

// Drain returns every pending notice and empties the inbox.
func (i *Inbox) Drain() []Notice {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := i.notices
	i.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Len returns the number of pending notices.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.notices)
}
