package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/backend"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/event"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	pkgkafka "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- In-memory Store ---

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, apperrors.NotFound("state", key)
	}
	return v, nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// --- Static session ---

type staticSession struct {
	session *domain.Session
}

func (s staticSession) Current() *domain.Session {
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func signedIn() staticSession {
	return staticSession{session: &domain.Session{UserID: "u-1", Name: "Aïcha", Token: "tok"}}
}

// --- Mock Backends ---

type mockAuthBackend struct {
	mock.Mock
}

func (m *mockAuthBackend) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockAuthBackend) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

type mockShippingBackend struct {
	mock.Mock
}

func (m *mockShippingBackend) ListZones(ctx context.Context) ([]domain.ShippingZone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShippingZone), args.Error(1)
}

func (m *mockShippingBackend) EstimateShipping(ctx context.Context, items []domain.CartItem, zone domain.ShippingZone, subtotal int64) (*backend.Estimate, error) {
	args := m.Called(ctx, items, zone, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Estimate), args.Error(1)
}

type mockPromoBackend struct {
	mock.Mock
}

func (m *mockPromoBackend) ValidatePromo(ctx context.Context, code string, welcome bool, userID string) (*backend.PromoValidation, error) {
	args := m.Called(ctx, code, welcome, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PromoValidation), args.Error(1)
}

type mockOrderBackend struct {
	mock.Mock
}

func (m *mockOrderBackend) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *mockOrderBackend) UpdateOrder(ctx context.Context, id string, draft *domain.OrderDraft) (string, error) {
	args := m.Called(ctx, id, draft)
	return args.String(0), args.Error(1)
}

func (m *mockOrderBackend) CreatePaymentIntent(ctx context.Context, orderID, email, userID string) (*backend.PaymentIntent, error) {
	args := m.Called(ctx, orderID, email, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PaymentIntent), args.Error(1)
}

type mockCatalogBackend struct {
	mock.Mock
}

func (m *mockCatalogBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogBackend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalogBackend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCatalogBackend) ListFavorites(ctx context.Context, userID string) ([]domain.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogBackend) AddFavorite(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockCatalogBackend) RemoveFavorite(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockCatalogBackend) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockCatalogBackend) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// --- Fixtures ---

func productRef(id string, price int64) domain.ProductRef {
	return domain.ProductRef{ID: id, Name: "Produit " + id, BasePrice: price, Weight: 500, Stock: domain.StockUnknown}
}

func newCartService(store *memStore) *CartService {
	return NewCartService(repository.NewState(store), newTestLogger())
}

func newProducer(pub *recordingPublisher) *event.Producer {
	return event.NewProducer(pub, newTestLogger())
}

func newInbox() *notify.Inbox {
	return notify.NewInbox(10)
}
