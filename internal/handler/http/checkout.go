package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
)

// CheckoutHandler drives the delivery, payment and confirmation steps.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// SelectZoneRequest is the JSON request body for picking a shipping zone.
type SelectZoneRequest struct {
	ZoneID string `json:"zone_id" validate:"required"`
}

// PromoRequest is the JSON request body for applying a promo code.
// An empty code is answered by the promo service itself.
type PromoRequest struct {
	Code string `json:"code"`
}

// --- Handlers ---

// GetState handles GET /api/v1/checkout
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.State())
}

// Begin handles POST /api/v1/checkout/begin
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Begin(r.Context())
	h.writeState(w, r, state, err)
}

// SelectZone handles PUT /api/v1/checkout/zone
func (h *CheckoutHandler) SelectZone(w http.ResponseWriter, r *http.Request) {
	var req SelectZoneRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	state, err := h.service.SelectZone(r.Context(), req.ZoneID)
	h.writeState(w, r, state, err)
}

// RetryShipping handles POST /api/v1/checkout/shipping/retry
func (h *CheckoutHandler) RetryShipping(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.RefreshShipping(r.Context())
	h.writeState(w, r, state, err)
}

// ApplyPromo handles POST /api/v1/checkout/promo
func (h *CheckoutHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req PromoRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	state, err := h.service.ApplyPromo(r.Context(), req.Code)
	h.writeState(w, r, state, err)
}

// RemovePromo handles DELETE /api/v1/checkout/promo
func (h *CheckoutHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.RemovePromo(r.Context()))
}

// SubmitDelivery handles PUT /api/v1/checkout/delivery
func (h *CheckoutHandler) SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	var req domain.DeliveryInfo
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	state, err := h.service.SubmitDelivery(r.Context(), req)
	h.writeState(w, r, state, err)
}

// Back handles POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Back(r.Context())
	h.writeState(w, r, state, err)
}

// Confirm handles POST /api/v1/checkout/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	state, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		h.logger.InfoContext(r.Context(), "order placement failed",
			slog.String("method", string(req.Method)),
			slog.String("error", err.Error()),
		)
	}
	h.writeState(w, r, state, err)
}

// writeState renders the checkout state. A failed shipping estimate is not
// a request failure: the state carries retry_shipping and the shell shows
// the retry notice.
func (h *CheckoutHandler) writeState(w http.ResponseWriter, r *http.Request, state *service.CheckoutState, err error) {
	if err != nil && !(state != nil && errors.Is(err, service.ErrShippingUnavailable)) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}
