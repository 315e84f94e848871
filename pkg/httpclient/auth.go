package httpclient

import (
	"context"
	"net/http"
	"sync"
)

// TokenSource returns the bearer token to attach, or "" when there is none.
type TokenSource func() string

// UnauthorizedFunc is notified when the backend rejects a bearer token.
type UnauthorizedFunc func(ctx context.Context)

// AuthDoer attaches the current bearer token to every request and is the
// single interception point for 401 responses: observers registered with
// OnUnauthorized run once per rejected response, in registration order.
// Anonymous requests answered with 401 (wrong password on login) do not
// trigger observers.
type AuthDoer struct {
	next  Doer
	token TokenSource

	mu        sync.RWMutex
	observers []UnauthorizedFunc
}

// NewAuthDoer wraps next with bearer-token injection.
func NewAuthDoer(next Doer, token TokenSource) *AuthDoer {
	return &AuthDoer{next: next, token: token}
}

// OnUnauthorized registers fn to run after any authenticated request is
// answered with 401.
func (a *AuthDoer) OnUnauthorized(fn UnauthorizedFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Do implements Doer.
func (a *AuthDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	authenticated := false
	if a.token != nil {
		if tok := a.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authenticated = true
		}
	}

	resp, err := a.next.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		a.mu.RLock()
		observers := make([]UnauthorizedFunc, len(a.observers))
		copy(observers, a.observers)
		a.mu.RUnlock()

		for _, fn := range observers {
			fn(ctx)
		}
	}
	return resp, nil
}
