package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	cart    *service.CartService
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart *service.CartService, catalog *service.CatalogService, logger *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, catalog: catalog, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
// The product is fetched so price and stock come from the backend.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// UpdateQuantityRequest is the JSON request body for updating a line.
// Out-of-range quantities are clamped, not rejected.
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type cartView struct {
	Items     []domain.CartItem `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	ItemCount int               `json:"item_count"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newCartView(c *domain.Cart) cartView {
	return cartView{Items: c.Items, Subtotal: c.Subtotal(), ItemCount: c.ItemCount(), UpdatedAt: c.UpdatedAt}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, newCartView(h.cart.Snapshot()))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.cart.AddProduct(r.Context(), p, req.Quantity, req.Color, req.Size)
	if err != nil {
		h.writeMutationError(w, r, cart, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	key := domain.ItemKey{ProductID: req.ProductID, Color: req.Color, Size: req.Size}
	cart, err := h.cart.SetQuantity(r.Context(), key, req.Quantity)
	if err != nil {
		h.writeMutationError(w, r, cart, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items?product_id=&color=&size=
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := domain.ItemKey{ProductID: q.Get("product_id"), Color: q.Get("color"), Size: q.Get("size")}
	if key.ProductID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product_id is required"), h.logger)
		return
	}

	cart, err := h.cart.Remove(r.Context(), key)
	if err != nil {
		h.writeMutationError(w, r, cart, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "cart cleared in memory only", slog.String("error", err.Error()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeMutationError shows the updated cart when only persistence failed.
// The change is live for this run and the write is retried by the next
// mutation.
func (h *CartHandler) writeMutationError(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if cart != nil {
		h.logger.WarnContext(r.Context(), "cart updated in memory only", slog.String("error", err.Error()))
		httputil.WriteData(w, http.StatusOK, newCartView(cart))
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}
