package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/backend"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/pagination"
)

// stack wires the real transport and services against an httptest backend.
type stack struct {
	session *SessionService
	cart    *CartService
	catalog *CatalogService
	inbox   *notify.Inbox
	store   *memStore
	hits    *atomic.Int32

	mu     sync.Mutex
	delays []time.Duration
}

func newStack(t *testing.T, handler http.HandlerFunc) *stack {
	t.Helper()
	st := &stack{inbox: newInbox(), store: newMemStore(), hits: &atomic.Int32{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	doer := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxConnsPerHost: 10,
		Retry:           httpclient.DefaultRetryPolicy(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			st.mu.Lock()
			st.delays = append(st.delays, d)
			st.mu.Unlock()
			return nil
		},
	})

	st.cart = newCartService(st.store)
	var token httpclient.TokenSource = func() string { return st.session.Token() }
	auth := httpclient.NewAuthDoer(doer, token)
	client := backend.New(auth, srv.URL, token)

	st.session = NewSessionService(client, repository.NewState(st.store), st.cart, st.inbox, newProducer(&recordingPublisher{}), newTestLogger())
	st.catalog = NewCatalogService(client, st.session, newTestLogger())
	auth.OnUnauthorized(st.session.Expire)
	return st
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestTransport_UnauthorizedTearsDownSession(t *testing.T) {
	st := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeBody(w, http.StatusOK, map[string]string{"id": "u-1", "name": "Aïcha", "token": "stale"})
		case "/orders/user/u-1":
			assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			writeBody(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	_, err := st.session.Login(ctx, domain.Credentials{Email: "aicha@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = st.cart.Add(ctx, AddItemInput{Product: productRef("p1", 100), Quantity: 1})
	require.NoError(t, err)

	_, err = st.catalog.Orders(ctx)
	require.Error(t, err)

	assert.Empty(t, st.session.Token())
	assert.True(t, st.cart.Snapshot().IsEmpty())
	assert.False(t, st.store.has(repository.KeySession))
	notices := st.inbox.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.KindSessionExpired, notices[0].Kind)

	hits := st.hits.Load()
	_, err = st.catalog.Orders(ctx)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, hits, st.hits.Load(), "no request after teardown")
}

func TestTransport_WrongPasswordKeepsState(t *testing.T) {
	st := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
	})
	ctx := context.Background()
	_, err := st.cart.Add(ctx, AddItemInput{Product: productRef("p1", 100), Quantity: 1})
	require.NoError(t, err)

	_, err = st.session.Login(ctx, domain.Credentials{Email: "aicha@example.com", Password: "wrong1"})
	require.Error(t, err)

	assert.False(t, st.cart.Snapshot().IsEmpty())
	assert.Zero(t, st.inbox.Len())
}

func TestTransport_BadGatewayRetriedLinearly(t *testing.T) {
	var calls atomic.Int32
	st := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeBody(w, http.StatusOK, []map[string]any{{"_id": "p1", "name": "Pagne", "prix": 7500}})
	})

	res, err := st.catalog.ListProducts(context.Background(), ProductFilter{Page: pagination.DefaultParams()})
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second, 9 * time.Second}, st.delays)
}

func TestTransport_BadGatewayExhausted(t *testing.T) {
	st := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := st.catalog.ListProducts(context.Background(), ProductFilter{})
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, int32(4), st.hits.Load())
}

func TestTransport_OtherErrorsNotRetried(t *testing.T) {
	st := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := st.catalog.ListProducts(context.Background(), ProductFilter{})
	require.Error(t, err)
	assert.Equal(t, int32(1), st.hits.Load())
	assert.Empty(t, st.delays)
}
