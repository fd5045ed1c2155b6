// Package cart maintains a session's shopping cart: a list of line items,
// one per product, with quantities and totals derived on demand.
package cart

import "github.com/imrishuroy/go-storefront-api/internal/catalog"

// Item is one cart line: a snapshot of the product's display fields captured
// at add time plus the requested quantity. The snapshot insulates the cart
// total from later price changes in the live catalog.
type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Category  string  `json:"category,omitempty"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

// Cart holds at most one line item per product id, in insertion order.
// It does not enforce stock limits; that is the caller's concern.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add merges quantity into the existing line for the product, or appends a
// new line with a snapshot of the product's display fields. quantity below 1
// counts as 1.
func (c *Cart) Add(p catalog.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Stock:     p.Stock,
		Quantity:  quantity,
	})
}

// Remove deletes the line item for the product id. Removing an absent id is
// a no-op.
func (c *Cart) Remove(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// SetQuantity sets the line's quantity exactly. Values below 1 clamp to 1;
// deleting a line requires an explicit Remove. Returns false when no line
// exists for the product id.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the subtotal over all lines using each line's captured price.
// Always derived, never cached.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities over all lines (not the number of
// distinct lines).
func (c *Cart) ItemCount() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.items)
}
