package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Quantity bounds of a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

// ClampQuantity forces qty into [MinQuantity, MaxQuantity].
func ClampQuantity(qty int) int {
	if qty < MinQuantity {
		return MinQuantity
	}
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// ItemKey identifies a cart line. Two lines never share a key.
type ItemKey struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// CartItem is a single line of the cart.
type CartItem struct {
	Product           ProductRef `json:"product"`
	Quantity          int        `json:"quantity"`
	Color             string     `json:"color,omitempty"`
	Size              string     `json:"size,omitempty"`
	UnitPriceSnapshot int64      `json:"unit_price_snapshot,omitempty"`
}

// Key returns the line's uniqueness key.
func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.Product.ID, Color: i.Color, Size: i.Size}
}

// LineTotal is quantity × effective price.
func (i CartItem) LineTotal() int64 {
	return int64(i.Quantity) * i.Product.EffectivePrice()
}

// Cart is the ordered list of lines. Totals are always derived.
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// TotalWeight returns the cart weight in grams.
func (c *Cart) TotalWeight() int {
	var weight int
	for _, item := range c.Items {
		weight += item.Quantity * item.Product.Weight
	}
	return weight
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the line with key, or -1.
func (c *Cart) FindItemIndex(key ItemKey) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand out to readers.
func (c *Cart) Clone() *Cart {
	out := &Cart{UpdatedAt: c.UpdatedAt, Items: make([]CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

// Digest fingerprints the priced contents of the cart. Shipping quotes and
// promo applications remember the digest they were computed for.
func (c *Cart) Digest() string {
	h := sha256.New()
	for _, item := range c.Items {
		k := item.Key()
		h.Write([]byte(k.ProductID))
		h.Write([]byte{0})
		h.Write([]byte(k.Color))
		h.Write([]byte{0})
		h.Write([]byte(k.Size))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(item.Quantity)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(item.Product.EffectivePrice(), 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(item.Product.Weight)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
