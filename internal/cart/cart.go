// Package cart holds the session's selected items and derives totals from
// them. A cart line is keyed by (product ID, variant weight); adding the same
// pair again merges quantities instead of duplicating the line.
package cart

import (
	"fmt"

	"github.com/traveldeskerala-ui/efresh/internal/catalog"
	"github.com/traveldeskerala-ui/efresh/internal/storage"
)

// Line is one product+variant selection. Product and Variant are copied in
// at add time so checkout can snapshot prices as they were when chosen.
type Line struct {
	ProductID string          `json:"productId"`
	Product   catalog.Product `json:"product"`
	Variant   catalog.Variant `json:"variant"`
	Quantity  int             `json:"quantity"`
}

// Cart is the session's mutable line collection. It is owned by a single
// session; mutations are synchronous and immediately observable.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add merges qty into an existing (product, weight) line or appends a new
// one. Quantities below 1 are rejected as a no-op.
func (c *Cart) Add(p catalog.Product, v catalog.Variant, qty int) {
	if qty < 1 {
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID && c.lines[i].Variant.Weight == v.Weight {
			c.lines[i].Quantity += qty
			return
		}
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Product:   p.Clone(),
		Variant:   v,
		Quantity:  qty,
	})
}

// SetQuantity replaces a line's quantity. Zero or negative removes the line.
func (c *Cart) SetQuantity(productID string, weight catalog.Weight, qty int) {
	if qty <= 0 {
		c.Remove(productID, weight)
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID && c.lines[i].Variant.Weight == weight {
			c.lines[i].Quantity = qty
			return
		}
	}
}

// Remove drops the line if present.
func (c *Cart) Remove(productID string, weight catalog.Weight) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID && c.lines[i].Variant.Weight == weight {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// Subtotal sums quantity times the line's own variant price. The price
// captured at add time is authoritative, not the current catalog price.
func (c *Cart) Subtotal() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity * l.Variant.Price
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Lines returns a shallow copy of the line slice for rendering.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Snapshot deep-copies the lines for an order record, so later catalog or
// cart mutation can never reach into a placed order.
func (c *Cart) Snapshot() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l
		out[i].Product = l.Product.Clone()
	}
	return out
}

// Load rebuilds the cart from the session store.
func Load(st storage.Store) (*Cart, error) {
	var lines []Line
	if _, err := st.Get(storage.KeyCart, &lines); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Cart{lines: lines}, nil
}

// Save writes the cart back to the session store.
func (c *Cart) Save(st storage.Store) error {
	if err := st.Set(storage.KeyCart, c.lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
