package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
)

// fakeBackend routes requests to per-path handlers and records calls.
type fakeBackend struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{t: t, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fb.mu.Lock()
		fb.calls = append(fb.calls, key)
		h, ok := fb.routes[key]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[method+" "+path] = h
}

func (fb *fakeBackend) callCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.calls)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request, dst any) {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func newClient(baseURL, token string) *Client {
	doer := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxConnsPerHost: 10,
		Retry:           httpclient.RetryPolicy{MaxRetries: 0},
	})
	tok := func() string { return token }
	return New(httpclient.NewAuthDoer(doer, tok), baseURL, tok)
}

func TestClient_LoginWithPhone(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		decodeBody(t, r, &body)
		assert.Equal(t, "+22790123456", body["phoneNumber"])
		assert.NotContains(t, body, "email")
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1", "name": "Moussa", "token": "jwt"})
	})

	s, err := newClient(srv.URL, "").Login(context.Background(), domain.Credentials{PhoneNumber: "+22790123456", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, &domain.Session{UserID: "u1", Name: "Moussa", Token: "jwt"}, s)
}

func TestClient_LoginRejected(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "mot de passe incorrect"})
	})

	_, err := newClient(srv.URL, "").Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "x"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "mot de passe incorrect", apperrors.UserMessage(err))
}

func TestClient_Register(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		decodeBody(t, r, &body)
		assert.Equal(t, "Aïcha", body["name"])
		writeJSON(w, http.StatusCreated, map[string]string{"id": "u2", "name": "Aïcha", "token": "jwt2"})
	})

	s, err := newClient(srv.URL, "").Register(context.Background(), domain.Registration{
		Name: "Aïcha", Email: "aicha@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "u2", s.UserID)
	assert.Equal(t, "aicha@example.com", s.Email)
}

func TestClient_ListProducts(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodGet, "/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"_id":"p1","name":"Boubou brodé","prix":15000,"prixPromo":12000,"poids":400,"quantite":3,"image":["a.jpg"]},
			{"_id":"p2","name":"Sandales","prix":5000,"prixPromo":0,"poids":700}
		]`)
	})

	products, err := newClient(srv.URL, "").ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(12000), products[0].EffectivePrice())
	assert.Equal(t, 3, products[0].Stock)
	assert.Equal(t, domain.StockUnknown, products[1].Stock)
	assert.Equal(t, int64(5000), products[1].EffectivePrice())
}

func TestClient_GetProductNotFound(t *testing.T) {
	_, srv := newFakeBackend(t)

	_, err := newClient(srv.URL, "").GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestClient_ListCategories(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodGet, "/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{"_id": "c1", "name": "Mode", "image": "mode.jpg"}})
	})

	cats, err := newClient(srv.URL, "").ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: "c1", Name: "Mode", ImageURL: "mode.jpg"}}, cats)
}

func TestClient_EstimateShipping(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/shipping/estimate", func(w http.ResponseWriter, r *http.Request) {
		var body estimateRequest
		decodeBody(t, r, &body)
		assert.Equal(t, "NE", body.CountryCode)
		assert.Equal(t, int64(110), body.Subtotal)
		require.Len(t, body.CartItems, 2)
		assert.Equal(t, int64(40), body.CartItems[0].Price)
		writeJSON(w, http.StatusOK, map[string]any{
			"shippingDetails": map[string]any{"coutTotal": 1499.6, "poidsTotal": 2.2},
		})
	})

	items := []domain.CartItem{
		{Product: domain.ProductRef{ID: "A", BasePrice: 50, PromoPrice: 40, Weight: 500}, Quantity: 2},
		{Product: domain.ProductRef{ID: "B", BasePrice: 30, Weight: 1200}, Quantity: 1},
	}
	est, err := newClient(srv.URL, "").EstimateShipping(context.Background(), items,
		domain.ShippingZone{ID: "z1", CountryCode: "NE"}, 110)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), est.TotalCost)
	assert.InDelta(t, 2.2, est.TotalWeight, 0.001)
}

func TestClient_EstimateShippingMissingDetails(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/shipping/estimate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := newClient(srv.URL, "").EstimateShipping(context.Background(), nil, domain.ShippingZone{}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shippingDetails")
}

func TestClient_ValidatePromo(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodGet, "/promo/validate", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, HashPromoCode("KASS20"), q.Get("hashedCode"))
		assert.Equal(t, "false", q.Get("welcomeFlag"))
		assert.Equal(t, "u1", q.Get("userId"))
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"isValide": true, "isWelcomeCode": false, "prixReduiction": 20})
	})

	v, err := newClient(srv.URL, "jwt").ValidatePromo(context.Background(), "KASS20", false, "u1")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, 20.0, v.Reduction)
}

func TestHashPromoCode(t *testing.T) {
	// sha256("ABC")
	assert.Equal(t, "b5d4045c3f466fa91fe2cc6abe79232a1a57cdf104f7a26e716e0a1e2789df78", HashPromoCode("ABC"))
}

func TestClient_AuthRequiredFailsFastWithoutToken(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newClient(srv.URL, "")
	ctx := context.Background()

	_, err := c.ValidatePromo(ctx, "X", false, "u1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = c.CreateOrder(ctx, &domain.OrderDraft{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = c.CreatePaymentIntent(ctx, "o1", "a@b.co", "u1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = c.ListOrders(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, c.AddFavorite(ctx, "u1", "p1"), apperrors.ErrUnauthorized)

	assert.Zero(t, fb.callCount())
}

func TestClient_CreateAndUpdateOrder(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/orders", func(w http.ResponseWriter, r *http.Request) {
		var draft domain.OrderDraft
		decodeBody(t, r, &draft)
		assert.Equal(t, "ref-1", draft.Reference)
		writeJSON(w, http.StatusCreated, map[string]string{"_id": "order-1"})
	})
	fb.handle(http.MethodPut, "/orders/order-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "order-1"})
	})

	c := newClient(srv.URL, "jwt")
	ctx := context.Background()
	draft := &domain.OrderDraft{Reference: "ref-1", Total: 1590}

	id, err := c.CreateOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)

	id, err = c.UpdateOrder(ctx, "order-1", draft)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)
}

func TestClient_CreateOrderWithoutID(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{})
	})

	_, err := newClient(srv.URL, "jwt").CreateOrder(context.Background(), &domain.OrderDraft{})
	assert.Error(t, err)
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/payments/intent", func(w http.ResponseWriter, r *http.Request) {
		var body intentRequest
		decodeBody(t, r, &body)
		assert.Equal(t, intentRequest{OrderID: "order-1", Email: "a@b.co", UserID: "u1"}, body)
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"clientSecret": "pi_123_secret_abc"})
	})

	intent, err := newClient(srv.URL, "jwt").CreatePaymentIntent(context.Background(), "order-1", "a@b.co", "u1")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID())
}

func TestClient_OrdersAndFavorites(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodGet, "/orders/user/u1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"_id":"o1","reference":"r1","status":"pending","total":1590,"createdAt":"2026-03-01T10:00:00Z"}]`)
	})
	fb.handle(http.MethodGet, "/orders/o1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"_id": "o1", "status": "shipped"})
	})
	fb.handle(http.MethodGet, "/users/u1/favorites", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": "p1", "name": "Pagne", "prix": 8000}})
	})
	var added, removed atomic.Int32
	fb.handle(http.MethodPost, "/users/u1/favorites", func(w http.ResponseWriter, r *http.Request) {
		added.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	fb.handle(http.MethodDelete, "/users/u1/favorites/p1", func(w http.ResponseWriter, r *http.Request) {
		removed.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	c := newClient(srv.URL, "jwt")
	ctx := context.Background()

	orders, err := c.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 2026, orders[0].CreatedAt.Year())

	order, err := c.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)

	favs, err := c.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Pagne", favs[0].Name)

	require.NoError(t, c.AddFavorite(ctx, "u1", "p1"))
	require.NoError(t, c.RemoveFavorite(ctx, "u1", "p1"))
	assert.Equal(t, int32(1), added.Load())
	assert.Equal(t, int32(1), removed.Load())
}

func TestClient_BusinessRuleRejection(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.handle(http.MethodPost, "/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]string{"code": "OUT_OF_STOCK", "message": "produit en rupture de stock"},
		})
	})

	_, err := newClient(srv.URL, "jwt").CreateOrder(context.Background(), &domain.OrderDraft{})
	assert.ErrorIs(t, err, apperrors.ErrBusinessRule)
	assert.Equal(t, "produit en rupture de stock", apperrors.UserMessage(err))
}

func TestClient_Ping(t *testing.T) {
	_, srv := newFakeBackend(t)
	assert.NoError(t, newClient(srv.URL, "").Ping(context.Background()))

	srv.Close()
	assert.Error(t, newClient(srv.URL, "").Ping(context.Background()))
}
