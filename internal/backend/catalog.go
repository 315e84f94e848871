package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

// productDTO is the backend's product document.
type productDTO struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CategoryID  string   `json:"ClefType"`
	Price       int64    `json:"prix"`
	PromoPrice  int64    `json:"prixPromo"`
	Weight      int      `json:"poids"`
	Stock       *int     `json:"quantite"`
	Colors      []string `json:"couleur"`
	Sizes       []string `json:"taille"`
	Images      []string `json:"image"`
}

func (p productDTO) toDomain() domain.Product {
	stock := domain.StockUnknown
	if p.Stock != nil {
		stock = *p.Stock
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		BasePrice:   p.Price,
		PromoPrice:  p.PromoPrice,
		Weight:      p.Weight,
		Stock:       stock,
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		Images:      p.Images,
	}
}

type categoryDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ListProducts returns the whole catalog. The endpoint takes no paging
// parameters.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.call(ctx, http.MethodGet, "/products", nil, &dtos); err != nil {
		return nil, err
	}
	products := make([]domain.Product, len(dtos))
	for i, d := range dtos {
		products[i] = d.toDomain()
	}
	return products, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var dto productDTO
	if err := c.call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	p := dto.toDomain()
	return &p, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var dtos []categoryDTO
	if err := c.call(ctx, http.MethodGet, "/categories", nil, &dtos); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, len(dtos))
	for i, d := range dtos {
		categories[i] = domain.Category{ID: d.ID, Name: d.Name, ImageURL: d.Image}
	}
	return categories, nil
}
