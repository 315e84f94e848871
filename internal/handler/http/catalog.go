package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/pagination"
)

// CatalogHandler serves products, categories, shipping zones, favorites
// and order tracking.
type CatalogHandler struct {
	catalog  *service.CatalogService
	shipping *service.ShippingService
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(catalog *service.CatalogService, shipping *service.ShippingService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, shipping: shipping, logger: logger}
}

// FavoriteRequest is the JSON request body for adding a favorite.
type FavoriteRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// ListProducts handles GET /api/v1/products?q=&category=&page=&per_page=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.catalog.ListProducts(r.Context(), service.ProductFilter{
		Query:      q.Get("q"),
		CategoryID: q.Get("category"),
		Page:       pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// ListZones handles GET /api/v1/shipping/zones
func (h *CatalogHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.shipping.ListZones(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, zones)
}

// ListFavorites handles GET /api/v1/favorites
func (h *CatalogHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.catalog.Favorites(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, favs)
}

// AddFavorite handles POST /api/v1/favorites
func (h *CatalogHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.catalog.AddFavorite(r.Context(), req.ProductID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/v1/favorites/{productId}
func (h *CatalogHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.RemoveFavorite(r.Context(), chi.URLParam(r, "productId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders handles GET /api/v1/orders
func (h *CatalogHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.catalog.Orders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *CatalogHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.catalog.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}
