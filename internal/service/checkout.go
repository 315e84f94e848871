package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/event"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/payment"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/logger"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/validator"
)

// Checkout failure stages reported in checkout.failed events.
const (
	FailedAtOrder   = "order"
	FailedAtIntent  = "payment_intent"
	FailedAtConfirm = "payment_confirm"
)

// PlaceOrderInput is what the payment step submits.
type PlaceOrderInput struct {
	Method domain.PaymentMethod `json:"method" validate:"required,oneof=card cash_on_delivery"`
	Card   *domain.CardDetails  `json:"card,omitempty" validate:"-"`
}

// CheckoutState is the checkout as the shell renders it.
type CheckoutState struct {
	Step          domain.Step              `json:"step"`
	Delivery      domain.DeliveryInfo      `json:"delivery"`
	Method        domain.PaymentMethod     `json:"method,omitempty"`
	Zone          *domain.ShippingZone     `json:"zone,omitempty"`
	Quote         *domain.ShippingQuote    `json:"quote,omitempty"`
	RetryShipping bool                     `json:"retry_shipping"`
	Promo         *domain.PromoApplication `json:"promo,omitempty"`
	Totals        domain.Totals            `json:"totals"`
	PendingOrder  *domain.PendingOrder     `json:"pending_order,omitempty"`
	Receipt       *domain.PaymentReceipt   `json:"receipt,omitempty"`
	ReturnHomeAt  *time.Time               `json:"return_home_at,omitempty"`
	Placing       bool                     `json:"placing"`
}

// CheckoutDeps are the collaborators of CheckoutService.
type CheckoutDeps struct {
	Cart      *CartService
	Session   SessionSource
	Shipping  *ShippingService
	Promo     *PromoService
	Orders    OrderBackend
	Processor payment.Processor
	Repo      repository.CheckoutRepository
	Inbox     *notify.Inbox
	Events    *event.Producer
	Logger    *slog.Logger
}

// CheckoutService drives the delivery, payment and confirmation steps.
// Network calls are never made while the state lock is held.
type CheckoutService struct {
	cart          *CartService
	session       SessionSource
	shipping      *ShippingService
	promo         *PromoService
	orders        OrderBackend
	processor     payment.Processor
	repo          repository.CheckoutRepository
	inbox         *notify.Inbox
	events        *event.Producer
	logger        *slog.Logger
	redirectAfter time.Duration
	now           func() time.Time

	flight singleflight.Group

	mu            sync.Mutex
	step          domain.Step
	delivery      domain.DeliveryStage
	payment       *domain.PaymentStage
	confirmation  *domain.ConfirmationStage
	selection     *domain.ShippingSelection
	retryShipping bool
	promoApp      *domain.PromoApplication
	pending       *domain.PendingOrder
	returnHomeAt  time.Time
	placing       bool
}

// NewCheckoutService creates a new checkout service. redirectAfter is how
// long the confirmation screen stays before returning home.
func NewCheckoutService(deps CheckoutDeps, redirectAfter time.Duration) *CheckoutService {
	return &CheckoutService{
		cart:          deps.Cart,
		session:       deps.Session,
		shipping:      deps.Shipping,
		promo:         deps.Promo,
		orders:        deps.Orders,
		processor:     deps.Processor,
		repo:          deps.Repo,
		inbox:         deps.Inbox,
		events:        deps.Events,
		logger:        deps.Logger,
		redirectAfter: redirectAfter,
		now:           time.Now,
		step:          domain.StepDelivery,
	}
}

// Restore reloads the cached delivery data, shipping selection and pending
// order of an interrupted checkout.
func (s *CheckoutService) Restore(ctx context.Context) error {
	delivery, err := s.repo.GetDelivery(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("load delivery: %w", err)
	}
	sel, err := s.repo.GetShipping(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("load shipping selection: %w", err)
	}
	pending, err := s.repo.GetPendingOrder(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("load pending order: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if delivery != nil {
		s.delivery = domain.DeliveryStage{Info: *delivery}
	}
	s.selection = sel
	s.pending = pending

	if pending != nil {
		s.logger.InfoContext(ctx, "pending order restored",
			slog.String("order_id", pending.OrderID),
			slog.String("order_ref", pending.Reference),
		)
	}
	return nil
}

// Begin enters checkout from the cart. A finished checkout starts over.
func (s *CheckoutService) Begin(ctx context.Context) (*CheckoutState, error) {
	if !s.session.Current().Authenticated() {
		return nil, apperrors.LoginRequired("log in to place an order")
	}
	if s.cart.Snapshot().IsEmpty() {
		return nil, apperrors.BusinessRule("your cart is empty")
	}

	s.mu.Lock()
	if s.step == domain.StepConfirmation {
		s.resetLocked()
	}
	s.mu.Unlock()

	return s.State(), nil
}

// SelectZone picks a shipping zone and prices the cart for it. The previous
// quote is discarded first. When the estimate fails the state is returned
// with RetryShipping set, together with an error matching
// ErrShippingUnavailable.
func (s *CheckoutService) SelectZone(ctx context.Context, zoneID string) (*CheckoutState, error) {
	zone, err := s.shipping.FindZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selection = &domain.ShippingSelection{Zone: *zone}
	s.retryShipping = false
	sel := *s.selection
	s.mu.Unlock()

	if err := s.repo.SaveShipping(ctx, &sel); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist shipping selection", slog.String("error", err.Error()))
	}
	return s.estimate(ctx, *zone)
}

// RefreshShipping retries the estimate for the selected zone.
func (s *CheckoutService) RefreshShipping(ctx context.Context) (*CheckoutState, error) {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()

	if sel == nil {
		return nil, apperrors.BusinessRule("choose a shipping zone")
	}
	return s.estimate(ctx, sel.Zone)
}

func (s *CheckoutService) estimate(ctx context.Context, zone domain.ShippingZone) (*CheckoutState, error) {
	quote, estErr := s.shipping.Estimate(ctx, s.cart.Snapshot(), zone)

	s.mu.Lock()
	if s.selection == nil || s.selection.Zone.ID != zone.ID {
		// Another zone was picked meanwhile.
		s.mu.Unlock()
		return s.State(), estErr
	}
	s.selection.Quote = quote
	s.retryShipping = estErr != nil
	sel := *s.selection
	s.mu.Unlock()

	if estErr != nil {
		if errors.Is(estErr, ErrShippingUnavailable) {
			s.inbox.Push(notify.KindShippingRetry, shippingRetryMessage, "")
		}
		return s.State(), estErr
	}

	if err := s.repo.SaveShipping(ctx, &sel); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist shipping quote", slog.String("error", err.Error()))
	}
	return s.State(), nil
}

// ApplyPromo validates code and applies it to the current cart.
func (s *CheckoutService) ApplyPromo(ctx context.Context, code string) (*CheckoutState, error) {
	app, err := s.promo.Apply(ctx, code, s.cart.Snapshot())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.promoApp = app
	s.mu.Unlock()
	return s.State(), nil
}

// RemovePromo drops the applied promo code.
func (s *CheckoutService) RemovePromo(ctx context.Context) *CheckoutState {
	s.mu.Lock()
	s.promoApp = nil
	s.mu.Unlock()
	return s.State()
}

// SubmitDelivery validates the delivery data and moves to the payment step.
func (s *CheckoutService) SubmitDelivery(ctx context.Context, info domain.DeliveryInfo) (*CheckoutState, error) {
	s.mu.Lock()
	if s.step == domain.StepConfirmation {
		s.mu.Unlock()
		return nil, apperrors.Conflict("this order is already confirmed")
	}
	stage, err := s.delivery.Submit(info)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.delivery = domain.DeliveryStage{Info: info}
	s.payment = &stage
	s.step = domain.StepPayment
	s.mu.Unlock()

	if err := s.repo.SaveDelivery(ctx, &info); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist delivery info", slog.String("error", err.Error()))
	}
	return s.State(), nil
}

// Back returns from the payment step to the delivery step, keeping the
// delivery data.
func (s *CheckoutService) Back(ctx context.Context) (*CheckoutState, error) {
	s.mu.Lock()
	if s.step != domain.StepPayment || s.payment == nil {
		s.mu.Unlock()
		return nil, apperrors.Conflict("not on the payment step")
	}
	if s.placing {
		s.mu.Unlock()
		return nil, apperrors.Conflict("payment is in progress")
	}
	s.delivery = s.payment.Back()
	s.payment = nil
	s.step = domain.StepDelivery
	s.mu.Unlock()

	return s.State(), nil
}

// PlaceOrder creates or updates the draft order and, for cards, pays it.
// Concurrent calls with the same input share one execution and its result.
// A call with a different input while a placement runs gets a conflict.
// The placement runs to completion even if the caller goes away, so a
// confirmed payment is never left half recorded.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*CheckoutState, error) {
	v, err, shared := s.flight.Do(placementKey(in), func() (any, error) {
		return s.placeOrder(context.WithoutCancel(ctx), in)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight order placement")
	}
	if err != nil {
		return nil, err
	}
	return v.(*CheckoutState), nil
}

// placementKey identifies a placement request without keeping card data
// in clear.
func placementKey(in PlaceOrderInput) string {
	h := sha256.New()
	h.Write([]byte(in.Method))
	if in.Card != nil {
		for _, f := range []string{in.Card.Number, in.Card.Expiry, in.Card.CVC, in.Card.HolderName} {
			h.Write([]byte{0})
			h.Write([]byte(f))
		}
	}
	return "place-order:" + hex.EncodeToString(h.Sum(nil))
}

type placement struct {
	stage    domain.PaymentStage
	session  *domain.Session
	cart     *domain.Cart
	zone     domain.ShippingZone
	quote    *domain.ShippingQuote
	promo    *domain.PromoApplication
	pending  *domain.PendingOrder
	totals   domain.Totals
	method   domain.PaymentMethod
	card     *domain.CardDetails
	orderRef string
}

func (s *CheckoutService) placeOrder(ctx context.Context, in PlaceOrderInput) (*CheckoutState, error) {
	p, err := s.preparePlacement(in)
	if err != nil {
		return nil, err
	}
	defer s.setPlacing(false)

	draft := s.buildDraft(p)
	orderID, err := s.ensureOrder(ctx, p, draft)
	if err != nil {
		return nil, s.fail(ctx, p, "", FailedAtOrder, err)
	}
	ctx = logger.WithOrderReference(ctx, p.orderRef)
	l := logger.WithContext(ctx, s.logger).With(slog.String("order_id", orderID))

	var receipt domain.PaymentReceipt
	switch p.method {
	case domain.PaymentCashOnDelivery:
		receipt = domain.CashOnDeliveryReceipt(orderID, p.orderRef, p.totals.Total, s.now().UTC())
	default:
		intent, err := s.orders.CreatePaymentIntent(ctx, orderID, p.stage.Delivery.Email, p.session.UserID)
		if err != nil {
			return nil, s.fail(ctx, p, orderID, FailedAtIntent, err)
		}
		billing := payment.BillingFromDelivery(p.stage.Delivery)
		conf, err := s.processor.ConfirmCardPayment(ctx, intent.ClientSecret, *p.card, billing)
		if err != nil {
			return nil, s.fail(ctx, p, orderID, FailedAtConfirm, err)
		}
		receipt = domain.CardReceipt(orderID, p.orderRef, conf.IntentID, p.totals.Total, s.now().UTC())
	}

	stage := p.stage
	stage.Method = p.method
	confirmation, err := stage.Confirm(receipt)
	if err != nil {
		return nil, s.fail(ctx, p, orderID, FailedAtConfirm, err)
	}

	s.complete(ctx, confirmation)
	l.InfoContext(ctx, "order placed",
		slog.String("method", string(p.method)),
		slog.Int64("total", p.totals.Total),
	)

	if err := s.events.PublishCheckoutCompleted(ctx, event.CheckoutCompletedData{
		OrderID:   orderID,
		Reference: p.orderRef,
		UserID:    p.session.UserID,
		Method:    p.method,
		Subtotal:  p.totals.Subtotal,
		Discount:  p.totals.Discount,
		Shipping:  p.totals.Shipping,
		Total:     p.totals.Total,
		ItemCount: p.cart.ItemCount(),
	}); err != nil {
		l.WarnContext(ctx, "failed to publish checkout completed event", slog.String("error", err.Error()))
	}
	if err := s.events.PublishCartCleared(ctx, p.session.UserID, ClearReasonOrderPlaced); err != nil {
		l.WarnContext(ctx, "failed to publish cart cleared event", slog.String("error", err.Error()))
	}
	s.inbox.Push(notify.KindOrderConfirmed, fmt.Sprintf("order %s confirmed", p.orderRef), "")

	return s.State(), nil
}

// preparePlacement checks every precondition and snapshots what the
// placement needs. On success the placing flag is set.
func (s *CheckoutService) preparePlacement(in PlaceOrderInput) (*placement, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	if in.Method == domain.PaymentCard {
		if in.Card == nil {
			return nil, apperrors.InvalidInput("card details are required")
		}
		if err := validator.Validate(in.Card); err != nil {
			return nil, err
		}
	}

	sess := s.session.Current()
	if !sess.Authenticated() {
		return nil, apperrors.LoginRequired("log in to place an order")
	}
	cart := s.cart.Snapshot()
	if cart.IsEmpty() {
		return nil, apperrors.BusinessRule("your cart is empty")
	}
	digest := cart.Digest()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.placing {
		return nil, apperrors.Conflict("an order is already being placed")
	}
	if s.step != domain.StepPayment || s.payment == nil {
		return nil, apperrors.Conflict("complete the delivery step first")
	}
	if s.selection == nil {
		return nil, apperrors.BusinessRule("choose a shipping zone")
	}
	if !s.selection.Quote.ValidFor(digest, s.selection.Zone.ID) {
		return nil, apperrors.BusinessRule("shipping cost is not available yet, please retry")
	}

	p := &placement{
		stage:   *s.payment,
		session: sess,
		cart:    cart,
		zone:    s.selection.Zone,
		quote:   s.selection.Quote,
		method:  in.Method,
		card:    in.Card,
	}
	if s.promoApp.ValidFor(digest, sess.UserID) {
		promo := *s.promoApp
		p.promo = &promo
	}
	if s.pending != nil {
		pending := *s.pending
		p.pending = &pending
		p.orderRef = pending.Reference
	}

	var discount int64
	if p.promo != nil {
		discount = p.promo.ReductionAmount
	}
	p.totals = domain.ComputeTotals(cart.Subtotal(), discount, p.quote.TotalCost, false)

	s.placing = true
	return p, nil
}

func (s *CheckoutService) buildDraft(p *placement) *domain.OrderDraft {
	draft := &domain.OrderDraft{
		UserID:        p.session.UserID,
		Delivery:      p.stage.Delivery,
		Lines:         domain.LinesFromCart(p.cart),
		Subtotal:      p.totals.Subtotal,
		Discount:      p.totals.Discount,
		ShippingZone:  p.zone.ID,
		ShippingFee:   p.totals.Shipping,
		Total:         p.totals.Total,
		PaymentMethod: p.method,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}
	if p.method == domain.PaymentCashOnDelivery {
		draft.PaymentStatus = domain.PaymentStatusOnCOD
	}
	if p.promo != nil {
		draft.PromoCode = p.promo.Code
	}
	return draft
}

// ensureOrder updates the pending draft order when one exists, otherwise
// creates it and records it as pending before any payment is attempted.
func (s *CheckoutService) ensureOrder(ctx context.Context, p *placement, draft *domain.OrderDraft) (string, error) {
	if p.pending != nil {
		draft.Reference = p.pending.Reference
		id, err := s.orders.UpdateOrder(ctx, p.pending.OrderID, draft)
		if err != nil {
			return "", err
		}
		s.logger.InfoContext(ctx, "pending order updated",
			slog.String("order_id", id),
			slog.String("order_ref", p.orderRef),
		)
		return id, nil
	}

	p.orderRef = uuid.NewString()
	draft.Reference = p.orderRef
	id, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		return "", err
	}

	pending := &domain.PendingOrder{OrderID: id, Reference: p.orderRef, CreatedAt: s.now().UTC()}
	s.mu.Lock()
	s.pending = pending
	s.mu.Unlock()
	if err := s.repo.SavePendingOrder(ctx, pending); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist pending order",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "draft order created",
		slog.String("order_id", id),
		slog.String("order_ref", p.orderRef),
	)
	return id, nil
}

// fail records a failed placement. The checkout stays on the payment step
// and the pending order is kept for the retry.
func (s *CheckoutService) fail(ctx context.Context, p *placement, orderID, stage string, err error) error {
	s.logger.WarnContext(ctx, "order placement failed",
		slog.String("stage", stage),
		slog.String("order_id", orderID),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, apperrors.ErrPaymentFailed) {
		s.inbox.Push(notify.KindPaymentFailed, apperrors.UserMessage(err), "")
	}

	if pubErr := s.events.PublishCheckoutFailed(ctx, event.CheckoutFailedData{
		OrderID:   orderID,
		Reference: p.orderRef,
		UserID:    p.session.UserID,
		Stage:     stage,
		Reason:    apperrors.UserMessage(err),
	}); pubErr != nil {
		s.logger.WarnContext(ctx, "failed to publish checkout failed event", slog.String("error", pubErr.Error()))
	}
	return err
}

// complete moves to the confirmation step and clears everything the
// checkout attempt cached, the cart included.
func (s *CheckoutService) complete(ctx context.Context, confirmation domain.ConfirmationStage) {
	s.mu.Lock()
	s.step = domain.StepConfirmation
	s.confirmation = &confirmation
	s.payment = nil
	s.delivery = domain.DeliveryStage{}
	s.selection = nil
	s.retryShipping = false
	s.promoApp = nil
	s.pending = nil
	s.returnHomeAt = s.now().UTC().Add(s.redirectAfter)
	s.mu.Unlock()

	if err := s.repo.ClearCheckout(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear checkout state", slog.String("error", err.Error()))
	}
	if err := s.cart.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order", slog.String("error", err.Error()))
	}
}

func (s *CheckoutService) setPlacing(v bool) {
	s.mu.Lock()
	s.placing = v
	s.mu.Unlock()
}

// resetLocked starts a fresh checkout. Callers hold s.mu.
func (s *CheckoutService) resetLocked() {
	s.step = domain.StepDelivery
	s.confirmation = nil
	s.payment = nil
	s.returnHomeAt = time.Time{}
}

// Totals returns the price breakdown for the current cart. Shipping is
// pending, and counted as zero, until a quote matches the cart and zone.
func (s *CheckoutService) Totals() domain.Totals {
	cart := s.cart.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked(cart, s.userID())
}

func (s *CheckoutService) userID() string {
	if sess := s.session.Current(); sess != nil {
		return sess.UserID
	}
	return ""
}

func (s *CheckoutService) totalsLocked(cart *domain.Cart, userID string) domain.Totals {
	digest := cart.Digest()

	var discount int64
	if s.promoApp.ValidFor(digest, userID) {
		discount = s.promoApp.ReductionAmount
	}

	var shipping int64
	pending := true
	if s.selection != nil && s.selection.Quote.ValidFor(digest, s.selection.Zone.ID) {
		shipping = s.selection.Quote.TotalCost
		pending = false
	}
	return domain.ComputeTotals(cart.Subtotal(), discount, shipping, pending)
}

// State returns the current checkout state.
func (s *CheckoutService) State() *CheckoutState {
	cart := s.cart.Snapshot()
	userID := s.userID()
	digest := cart.Digest()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &CheckoutState{
		Step:          s.step,
		Delivery:      s.delivery.Info,
		RetryShipping: s.retryShipping,
		Placing:       s.placing,
	}
	if s.payment != nil {
		st.Delivery = s.payment.Delivery
		st.Method = s.payment.Method
	}
	if s.selection != nil {
		zone := s.selection.Zone
		st.Zone = &zone
		if s.selection.Quote.ValidFor(digest, zone.ID) {
			quote := *s.selection.Quote
			st.Quote = &quote
		}
	}
	if s.promoApp.ValidFor(digest, userID) {
		promo := *s.promoApp
		st.Promo = &promo
	}
	if s.pending != nil {
		pending := *s.pending
		st.PendingOrder = &pending
	}
	if s.confirmation != nil {
		receipt := s.confirmation.Receipt
		st.Delivery = s.confirmation.Delivery
		st.Method = receipt.Method
		st.Receipt = &receipt
		at := s.returnHomeAt
		st.ReturnHomeAt = &at
		// The cart is already empty; show what was charged.
		st.Totals = domain.Totals{Total: receipt.Amount}
		return st
	}
	st.Totals = s.totalsLocked(cart, userID)
	return st
}

// CartChanged drops a quote or promo that no longer matches the cart. An
// emptied cart also drops the pending order, whose lines are gone.
func (s *CheckoutService) CartChanged(ctx context.Context, cart *domain.Cart) {
	digest := cart.Digest()

	s.mu.Lock()
	dropPending := cart.IsEmpty() && s.pending != nil
	if dropPending {
		s.pending = nil
	}
	dropQuote := s.selection != nil && s.selection.Quote != nil && s.selection.Quote.CartDigest != digest
	if dropQuote {
		s.selection.Quote = nil
	}
	if s.promoApp != nil && s.promoApp.CartDigest != digest {
		s.promoApp = nil
	}
	var sel domain.ShippingSelection
	if dropQuote {
		sel = *s.selection
	}
	s.mu.Unlock()

	if dropPending {
		if err := s.repo.DeletePendingOrder(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete pending order", slog.String("error", err.Error()))
		}
	}

	if dropQuote {
		if err := s.repo.SaveShipping(ctx, &sel); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist shipping selection", slog.String("error", err.Error()))
		}
	}
}

// SessionChanged drops user-bound state when the user signs out or
// changes. The pending order belonged to the previous user.
func (s *CheckoutService) SessionChanged(ctx context.Context, sess *domain.Session) {
	s.mu.Lock()
	if s.promoApp != nil && (sess == nil || s.promoApp.UserID != sess.UserID) {
		s.promoApp = nil
	}
	if sess != nil {
		s.mu.Unlock()
		return
	}
	s.step = domain.StepDelivery
	s.payment = nil
	s.confirmation = nil
	s.delivery = domain.DeliveryStage{}
	s.selection = nil
	s.retryShipping = false
	s.pending = nil
	s.returnHomeAt = time.Time{}
	s.mu.Unlock()

	if err := s.repo.ClearCheckout(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear checkout state", slog.String("error", err.Error()))
	}
}
