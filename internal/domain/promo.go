package domain

import "strings"

// PromoApplication is a validated promo code applied to a given cart.
type PromoApplication struct {
	Code            string  `json:"code"`
	IsWelcomeCode   bool    `json:"is_welcome_code"`
	ReductionAmount int64   `json:"reduction_amount"`
	Percent         float64 `json:"percent,omitempty"`
	UserID          string  `json:"user_id"`
	CartDigest      string  `json:"cart_digest"`
}

// ValidFor reports whether the application still matches the cart and user.
func (p *PromoApplication) ValidFor(cartDigest, userID string) bool {
	return p != nil && p.CartDigest == cartDigest && p.UserID == userID
}

// NormalizePromoCode trims and upper-cases a user-entered code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WelcomeReduction applies percent to subtotal and caps the result.
func WelcomeReduction(subtotal int64, percent float64, ceiling int64) int64 {
	if subtotal <= 0 || percent <= 0 {
		return 0
	}
	reduction := int64(float64(subtotal) * percent / 100)
	return min(reduction, ceiling)
}
