package backend

import (
	"context"
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
)

type zoneDTO struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	BaseFee int64  `json:"baseFee"`
}

type estimateItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Weight    int    `json:"weight"`
}

type estimateRequest struct {
	CartItems   []estimateItem `json:"cartItems"`
	CountryCode string         `json:"countryCode"`
	Subtotal    int64          `json:"subtotal"`
}

// Estimate is the backend's shipping computation.
type Estimate struct {
	TotalCost   int64
	TotalWeight float64
}

type estimateResponse struct {
	ShippingDetails *struct {
		CoutTotal  float64 `json:"coutTotal"`
		PoidsTotal float64 `json:"poidsTotal"`
	} `json:"shippingDetails"`
}

// ListZones returns the shipping zones.
func (c *Client) ListZones(ctx context.Context) ([]domain.ShippingZone, error) {
	var dtos []zoneDTO
	if err := c.call(ctx, http.MethodGet, "/shipping/zones", nil, &dtos); err != nil {
		return nil, err
	}
	zones := make([]domain.ShippingZone, len(dtos))
	for i, d := range dtos {
		zones[i] = domain.ShippingZone{ID: d.ID, Name: d.Name, CountryCode: d.Code, BaseFee: d.BaseFee}
	}
	return zones, nil
}

// EstimateShipping prices shipping of items to zone.
func (c *Client) EstimateShipping(ctx context.Context, items []domain.CartItem, zone domain.ShippingZone, subtotal int64) (*Estimate, error) {
	req := estimateRequest{
		CartItems:   make([]estimateItem, len(items)),
		CountryCode: zone.CountryCode,
		Subtotal:    subtotal,
	}
	for i, item := range items {
		req.CartItems[i] = estimateItem{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			Price:     item.Product.EffectivePrice(),
			Weight:    item.Product.Weight,
		}
	}

	var resp estimateResponse
	if err := c.call(ctx, http.MethodPost, "/shipping/estimate", req, &resp); err != nil {
		return nil, err
	}
	if resp.ShippingDetails == nil {
		return nil, errMissingField("shippingDetails")
	}
	return &Estimate{
		TotalCost:   int64(resp.ShippingDetails.CoutTotal + 0.5),
		TotalWeight: resp.ShippingDetails.PoidsTotal,
	}, nil
}
