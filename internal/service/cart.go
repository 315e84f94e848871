package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
)

// AddItemInput holds the parameters for adding a line to the cart.
type AddItemInput struct {
	Product  domain.ProductRef
	Quantity int
	Color    string
	Size     string
}

// CartListener is told about every cart mutation, after the fact.
type CartListener func(ctx context.Context, cart *domain.Cart)

// CartService is the single writer of the process-wide cart. Every mutation
// updates memory first, then persists.
type CartService struct {
	repo   repository.CartRepository
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	cart      *domain.Cart
	listeners []CartListener
}

// NewCartService creates a new cart service holding an empty cart until
// Load is called.
func NewCartService(repo repository.CartRepository, logger *slog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		cart:   &domain.Cart{Items: []domain.CartItem{}},
	}
}

// OnChange registers fn to run after each mutation.
func (s *CartService) OnChange(fn CartListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load restores the persisted cart. A missing cart is an empty cart.
func (s *CartService) Load(ctx context.Context) error {
	cart, err := s.repo.GetCart(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load cart: %w", err)
	}
	for i := range cart.Items {
		cart.Items[i].Quantity = domain.ClampQuantity(cart.Items[i].Quantity)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart restored",
		slog.Int("lines", len(cart.Items)),
		slog.Int64("subtotal", cart.Subtotal()),
	)
	return nil
}

// Snapshot returns a copy of the current cart.
func (s *CartService) Snapshot() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Add merges the line into an existing one with the same key, or appends
// it. Quantities are clamped to [1, 999].
func (s *CartService) Add(ctx context.Context, input AddItemInput) (*domain.Cart, error) {
	if input.Product.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Product.OutOfStock() {
		return nil, apperrors.BusinessRule(fmt.Sprintf("%s is out of stock", input.Product.Name))
	}
	qty := domain.ClampQuantity(input.Quantity)

	return s.mutate(ctx, func(cart *domain.Cart) error {
		item := domain.CartItem{
			Product:           input.Product,
			Quantity:          qty,
			Color:             input.Color,
			Size:              input.Size,
			UnitPriceSnapshot: input.Product.EffectivePrice(),
		}

		idx := cart.FindItemIndex(item.Key())
		if idx >= 0 {
			item.Quantity = domain.ClampQuantity(cart.Items[idx].Quantity + qty)
		}
		if stock := input.Product.Stock; stock > 0 && item.Quantity > stock {
			return apperrors.BusinessRule(fmt.Sprintf("only %d of %s left in stock", stock, input.Product.Name))
		}

		if idx >= 0 {
			// Refresh the product snapshot in case the price changed.
			cart.Items[idx] = item
			return nil
		}
		cart.Items = append(cart.Items, item)
		return nil
	})
}

// AddProduct adds a catalog product, checking the chosen options.
func (s *CartService) AddProduct(ctx context.Context, p *domain.Product, qty int, color, size string) (*domain.Cart, error) {
	if len(p.Colors) > 0 && !slices.Contains(p.Colors, color) {
		return nil, apperrors.InvalidInput("please choose an available color")
	}
	if len(p.Sizes) > 0 && !slices.Contains(p.Sizes, size) {
		return nil, apperrors.InvalidInput("please choose an available size")
	}
	return s.Add(ctx, AddItemInput{Product: p.Ref(), Quantity: qty, Color: color, Size: size})
}

// Remove deletes the line with key.
func (s *CartService) Remove(ctx context.Context, key domain.ItemKey) (*domain.Cart, error) {
	return s.mutate(ctx, func(cart *domain.Cart) error {
		idx := cart.FindItemIndex(key)
		if idx < 0 {
			return apperrors.NotFound("cart item", key.ProductID)
		}
		cart.Items = slices.Delete(cart.Items, idx, idx+1)
		return nil
	})
}

// SetQuantity replaces the quantity of the line with key, clamped to
// [1, 999]. Removing a line is done with Remove.
func (s *CartService) SetQuantity(ctx context.Context, key domain.ItemKey, qty int) (*domain.Cart, error) {
	return s.mutate(ctx, func(cart *domain.Cart) error {
		idx := cart.FindItemIndex(key)
		if idx < 0 {
			return apperrors.NotFound("cart item", key.ProductID)
		}
		qty = domain.ClampQuantity(qty)
		if stock := cart.Items[idx].Product.Stock; stock > 0 && qty > stock {
			return apperrors.BusinessRule(fmt.Sprintf("only %d of %s left in stock", stock, cart.Items[idx].Product.Name))
		}
		cart.Items[idx].Quantity = qty
		return nil
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cart = &domain.Cart{Items: []domain.CartItem{}, UpdatedAt: s.now().UTC()}
	snapshot := s.cart.Clone()
	err := s.repo.DeleteCart(ctx)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.notify(ctx, listeners, snapshot)

	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cleared cart", slog.String("error", err.Error()))
		return fmt.Errorf("clear cart: %w", err)
	}
	s.logger.InfoContext(ctx, "cart cleared")
	return nil
}

// mutate applies fn to a working copy. When fn succeeds the copy replaces
// the cart and is persisted. On a persist failure memory stays updated:
// the returned cart reflects it and the error reports the failed write.
func (s *CartService) mutate(ctx context.Context, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	s.mu.Lock()
	working := s.cart.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	working.UpdatedAt = s.now().UTC()
	s.cart = working
	snapshot := working.Clone()
	err := s.repo.SaveCart(ctx, snapshot)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.notify(ctx, listeners, snapshot)

	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.Int("lines", len(snapshot.Items)),
			slog.String("error", err.Error()),
		)
		return snapshot.Clone(), fmt.Errorf("save cart: %w", err)
	}
	return snapshot.Clone(), nil
}

func (s *CartService) notify(ctx context.Context, listeners []CartListener, cart *domain.Cart) {
	for _, fn := range listeners {
		fn(ctx, cart.Clone())
	}
}
