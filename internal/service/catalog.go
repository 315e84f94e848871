package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/pagination"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/slug"
)

// ProductFilter narrows the product listing.
type ProductFilter struct {
	Query      string
	CategoryID string
	Page       pagination.Params
}

// CatalogService serves products and the signed-in user's favorites and
// order history.
type CatalogService struct {
	backend CatalogBackend
	session SessionSource
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(backend CatalogBackend, session SessionSource, logger *slog.Logger) *CatalogService {
	return &CatalogService{backend: backend, session: session, logger: logger}
}

// ListProducts returns one page of products matching filter. Matching
// ignores case and accents.
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) (pagination.Result[domain.Product], error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if !slug.Matches(p.Name, filter.Query) {
			continue
		}
		matched = append(matched, p)
	}
	page := filter.Page
	if page.Page < 1 || page.PerPage < 1 {
		page = pagination.DefaultParams()
	}
	return pagination.Slice(matched, page), nil
}

// GetProduct returns a product by id.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.backend.GetProduct(ctx, id)
}

// ListCategories returns the product categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.backend.ListCategories(ctx)
}

func (s *CatalogService) requireUser(message string) (string, error) {
	sess := s.session.Current()
	if !sess.Authenticated() {
		return "", apperrors.LoginRequired(message)
	}
	return sess.UserID, nil
}

// Favorites returns the signed-in user's favorite products.
func (s *CatalogService) Favorites(ctx context.Context) ([]domain.Product, error) {
	userID, err := s.requireUser("log in to see your favorites")
	if err != nil {
		return nil, err
	}
	return s.backend.ListFavorites(ctx, userID)
}

// AddFavorite marks productID as a favorite.
func (s *CatalogService) AddFavorite(ctx context.Context, productID string) error {
	userID, err := s.requireUser("log in to save favorites")
	if err != nil {
		return err
	}
	if err := s.backend.AddFavorite(ctx, userID, productID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "favorite added", slog.String("product_id", productID))
	return nil
}

// RemoveFavorite unmarks productID.
func (s *CatalogService) RemoveFavorite(ctx context.Context, productID string) error {
	userID, err := s.requireUser("log in to manage favorites")
	if err != nil {
		return err
	}
	return s.backend.RemoveFavorite(ctx, userID, productID)
}

// Orders returns the signed-in user's orders.
func (s *CatalogService) Orders(ctx context.Context) ([]domain.Order, error) {
	userID, err := s.requireUser("log in to track your orders")
	if err != nil {
		return nil, err
	}
	return s.backend.ListOrders(ctx, userID)
}

// Order returns one order by id.
func (s *CatalogService) Order(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := s.requireUser("log in to track your orders"); err != nil {
		return nil, err
	}
	return s.backend.GetOrder(ctx, id)
}
