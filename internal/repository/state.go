package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

// State implements the typed repositories as JSON documents in a Store.
type State struct {
	store Store
}

// NewState creates repositories backed by store.
func NewState(store Store) *State {
	return &State{store: store}
}

// Ping checks the underlying store.
func (s *State) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func getJSON[T any](ctx context.Context, store Store, key string) (*T, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &v, nil
}

func putJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return store.Put(ctx, key, data)
}

func (s *State) GetCart(ctx context.Context) (*domain.Cart, error) {
	return getJSON[domain.Cart](ctx, s.store, KeyCart)
}

func (s *State) SaveCart(ctx context.Context, cart *domain.Cart) error {
	return putJSON(ctx, s.store, KeyCart, cart)
}

func (s *State) DeleteCart(ctx context.Context) error {
	return s.store.Delete(ctx, KeyCart)
}

func (s *State) GetSession(ctx context.Context) (*domain.Session, error) {
	return getJSON[domain.Session](ctx, s.store, KeySession)
}

func (s *State) SaveSession(ctx context.Context, session *domain.Session) error {
	return putJSON(ctx, s.store, KeySession, session)
}

func (s *State) DeleteSession(ctx context.Context) error {
	return s.store.Delete(ctx, KeySession)
}

func (s *State) GetDelivery(ctx context.Context) (*domain.DeliveryInfo, error) {
	return getJSON[domain.DeliveryInfo](ctx, s.store, KeyDelivery)
}

func (s *State) SaveDelivery(ctx context.Context, info *domain.DeliveryInfo) error {
	return putJSON(ctx, s.store, KeyDelivery, info)
}

func (s *State) GetShipping(ctx context.Context) (*domain.ShippingSelection, error) {
	return getJSON[domain.ShippingSelection](ctx, s.store, KeyShipping)
}

func (s *State) SaveShipping(ctx context.Context, sel *domain.ShippingSelection) error {
	return putJSON(ctx, s.store, KeyShipping, sel)
}

func (s *State) DeleteShipping(ctx context.Context) error {
	return s.store.Delete(ctx, KeyShipping)
}

func (s *State) GetPendingOrder(ctx context.Context) (*domain.PendingOrder, error) {
	return getJSON[domain.PendingOrder](ctx, s.store, KeyPendingOrder)
}

func (s *State) SavePendingOrder(ctx context.Context, po *domain.PendingOrder) error {
	return putJSON(ctx, s.store, KeyPendingOrder, po)
}

func (s *State) DeletePendingOrder(ctx context.Context) error {
	return s.store.Delete(ctx, KeyPendingOrder)
}

func (s *State) ClearCheckout(ctx context.Context) error {
	return s.store.Delete(ctx, KeyDelivery, KeyShipping, KeyPendingOrder)
}
