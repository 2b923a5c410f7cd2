package catalog

import "time"

// Weight identifies a sellable pack size. Every product variant is one of
// these three sizes.
type Weight string

const (
	Weight300g Weight = "300g"
	Weight500g Weight = "500g"
	Weight1kg  Weight = "1kg"
)

// Valid reports whether w is one of the known pack sizes.
func (w Weight) Valid() bool {
	switch w {
	case Weight300g, Weight500g, Weight1kg:
		return true
	}
	return false
}

// Variant is an immutable price point for a single pack size of a product.
// OriginalPrice, when set, is the struck-through price shown next to Price.
type Variant struct {
	Weight        Weight `json:"weight" yaml:"weight"`
	Price         int    `json:"price" yaml:"price"`
	OriginalPrice int    `json:"originalPrice,omitempty" yaml:"originalPrice,omitempty"`
}

// Product is read-only reference data supplied to the core by the catalog.
type Product struct {
	ID              string    `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Category        string    `json:"category" yaml:"category"`
	Image           string    `json:"image" yaml:"image"`
	Description     string    `json:"description" yaml:"description"`
	NutritionalInfo string    `json:"nutritionalInfo,omitempty" yaml:"nutritionalInfo,omitempty"`
	RecipeIdea      string    `json:"recipeIdea,omitempty" yaml:"recipeIdea,omitempty"`
	Variants        []Variant `json:"variants" yaml:"variants"`
	IsAvailable     bool      `json:"isAvailable" yaml:"isAvailable"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
}

// Variant returns the price point for the given pack size.
func (p Product) Variant(w Weight) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Weight == w {
			return v, true
		}
	}
	return Variant{}, false
}

// Clone returns a deep copy of the product so order snapshots cannot be
// altered through the shared catalog.
func (p Product) Clone() Product {
	cp := p
	cp.Variants = append([]Variant(nil), p.Variants...)
	return cp
}

type Category struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Image    string `json:"image" yaml:"image"`
	Order    int    `json:"order" yaml:"order"`
	IsActive bool   `json:"isActive" yaml:"isActive"`
}

type Banner struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Image    string `json:"image" yaml:"image"`
	Order    int    `json:"order" yaml:"order"`
	IsActive bool   `json:"isActive" yaml:"isActive"`
}

// PinCode is a deliverable postal code with its human-readable area labels.
type PinCode struct {
	Pin    string `json:"pin" yaml:"pin"`
	Area   string `json:"area" yaml:"area"`
	Region string `json:"region" yaml:"region"`
}
