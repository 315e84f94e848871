package service

import (
	"context"
	"log/slog"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
)

// PromoConfig holds the welcome code rules.
type PromoConfig struct {
	WelcomeCode string
	WelcomeCap  int64
}

// PromoService validates promo codes against the backend and prices them
// for a cart.
type PromoService struct {
	backend PromoBackend
	session SessionSource
	cfg     PromoConfig
	logger  *slog.Logger
}

// NewPromoService creates a new promo service.
func NewPromoService(backend PromoBackend, session SessionSource, cfg PromoConfig, logger *slog.Logger) *PromoService {
	cfg.WelcomeCode = domain.NormalizePromoCode(cfg.WelcomeCode)
	return &PromoService{backend: backend, session: session, cfg: cfg, logger: logger}
}

// Apply validates code for the signed-in user and computes the reduction
// for cart. Without a session nothing is sent to the backend.
func (s *PromoService) Apply(ctx context.Context, code string, cart *domain.Cart) (*domain.PromoApplication, error) {
	sess := s.session.Current()
	if !sess.Authenticated() {
		return nil, apperrors.LoginRequired("log in to use a promo code")
	}

	normalized := domain.NormalizePromoCode(code)
	if normalized == "" {
		return nil, apperrors.InvalidInput("promo code is required")
	}
	if cart.IsEmpty() {
		return nil, apperrors.BusinessRule("your cart is empty")
	}

	welcome := s.cfg.WelcomeCode != "" && normalized == s.cfg.WelcomeCode
	res, err := s.backend.ValidatePromo(ctx, normalized, welcome, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		s.logger.InfoContext(ctx, "promo code rejected", slog.String("user_id", sess.UserID))
		return nil, apperrors.BusinessRule("promo code is invalid or expired")
	}

	app := &domain.PromoApplication{
		Code:          normalized,
		IsWelcomeCode: res.IsWelcomeCode,
		UserID:        sess.UserID,
		CartDigest:    cart.Digest(),
	}
	if res.IsWelcomeCode {
		app.Percent = res.Reduction
		app.ReductionAmount = domain.WelcomeReduction(cart.Subtotal(), res.Reduction, s.cfg.WelcomeCap)
	} else {
		app.ReductionAmount = max(0, int64(res.Reduction))
	}

	s.logger.InfoContext(ctx, "promo code applied",
		slog.String("user_id", sess.UserID),
		slog.Bool("welcome", app.IsWelcomeCode),
		slog.Int64("reduction", app.ReductionAmount),
	)
	return app, nil
}
