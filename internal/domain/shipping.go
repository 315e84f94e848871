package domain

import "time"

// ShippingZone is a backend-defined destination with its own fee schedule.
type ShippingZone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	BaseFee     int64  `json:"base_fee"`
}

// ShippingQuote is the fee the backend computed for one cart and one zone.
type ShippingQuote struct {
	ZoneID      string    `json:"zone_id"`
	BaseFee     int64     `json:"base_fee"`
	WeightFee   int64     `json:"weight_fee"`
	TotalCost   int64     `json:"total_cost"`
	TotalWeight float64   `json:"total_weight"`
	CartDigest  string    `json:"cart_digest"`
	ComputedAt  time.Time `json:"computed_at"`
}

// ValidFor reports whether the quote was computed for this cart and zone.
func (q *ShippingQuote) ValidFor(cartDigest, zoneID string) bool {
	return q != nil && q.CartDigest == cartDigest && q.ZoneID == zoneID
}

// ShippingSelection is the zone the buyer picked and the quote obtained
// for it, cached for the duration of one checkout attempt.
type ShippingSelection struct {
	Zone  ShippingZone   `json:"zone"`
	Quote *ShippingQuote `json:"quote,omitempty"`
}
