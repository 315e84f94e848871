package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
)

// PromoValidation is the backend verdict on a promo code.
type PromoValidation struct {
	Valid         bool    `json:"isValide"`
	IsWelcomeCode bool    `json:"isWelcomeCode"`
	Reduction     float64 `json:"prixReduiction"`
}

// HashPromoCode returns the hex SHA-256 of the normalized code. Codes never
// travel in clear text.
func HashPromoCode(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ValidatePromo asks the backend whether code applies to userID. code must
// already be normalized.
func (c *Client) ValidatePromo(ctx context.Context, code string, welcome bool, userID string) (*PromoValidation, error) {
	q := url.Values{}
	q.Set("hashedCode", HashPromoCode(code))
	q.Set("welcomeFlag", strconv.FormatBool(welcome))
	q.Set("userId", userID)

	var resp PromoValidation
	if err := c.callAuth(ctx, http.MethodGet, "/promo/validate?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
