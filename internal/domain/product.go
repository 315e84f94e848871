package domain

// Product is a catalog entry as listed by the backend.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	BasePrice   int64    `json:"base_price"`
	PromoPrice  int64    `json:"promo_price"`
	Weight      int      `json:"weight"`
	Stock       int      `json:"stock"`
	Colors      []string `json:"colors,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Ref returns the slice of product data a cart line keeps.
func (p *Product) Ref() ProductRef {
	ref := ProductRef{
		ID:         p.ID,
		Name:       p.Name,
		BasePrice:  p.BasePrice,
		PromoPrice: p.PromoPrice,
		Weight:     p.Weight,
		Stock:      p.Stock,
	}
	if len(p.Images) > 0 {
		ref.ImageURL = p.Images[0]
	}
	return ref
}

// EffectivePrice is the price a buyer pays for one unit.
func (p *Product) EffectivePrice() int64 {
	return effectivePrice(p.BasePrice, p.PromoPrice)
}

// Category groups products in the catalog.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// StockUnknown marks a product whose stock the backend did not report.
const StockUnknown = -1

// ProductRef is the product snapshot stored with a cart line.
type ProductRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BasePrice  int64  `json:"base_price"`
	PromoPrice int64  `json:"promo_price"`
	Weight     int    `json:"weight"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url,omitempty"`
}

// EffectivePrice is PromoPrice when set, BasePrice otherwise.
func (p ProductRef) EffectivePrice() int64 {
	return effectivePrice(p.BasePrice, p.PromoPrice)
}

// OutOfStock reports a known zero stock.
func (p ProductRef) OutOfStock() bool {
	return p.Stock == 0
}

func effectivePrice(base, promo int64) int64 {
	if promo > 0 {
		return promo
	}
	return base
}
