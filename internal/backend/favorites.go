package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

func favoritesPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/favorites"
}

// ListFavorites returns the products userID marked as favorite.
func (c *Client) ListFavorites(ctx context.Context, userID string) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.callAuth(ctx, http.MethodGet, favoritesPath(userID), nil, &dtos); err != nil {
		return nil, err
	}
	products := make([]domain.Product, len(dtos))
	for i, d := range dtos {
		products[i] = d.toDomain()
	}
	return products, nil
}

// AddFavorite marks productID as favorite.
func (c *Client) AddFavorite(ctx context.Context, userID, productID string) error {
	body := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}
	return c.callAuth(ctx, http.MethodPost, favoritesPath(userID), body, nil)
}

// RemoveFavorite unmarks productID.
func (c *Client) RemoveFavorite(ctx context.Context, userID, productID string) error {
	return c.callAuth(ctx, http.MethodDelete, favoritesPath(userID)+"/"+url.PathEscape(productID), nil, nil)
}
