// Package catalog holds the storefront's reference data: products with their
// pack-size variants, categories, promotional banners, and the deliverable
// pin-code table. The data is read-only to the rest of the system.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Catalog serves lookups over the loaded reference data.
type Catalog struct {
	products   []Product
	categories []Category
	banners    []Banner
	pinCodes   []PinCode

	byID  map[string]Product
	byPin map[string]PinCode
}

type seedFile struct {
	Products   []Product  `yaml:"products"`
	Categories []Category `yaml:"categories"`
	Banners    []Banner   `yaml:"banners"`
	PinCodes   []PinCode  `yaml:"pinCodes"`
}

// Load decodes a catalog from YAML.
func Load(r io.Reader) (*Catalog, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(seed), nil
}

// Default returns the catalog built from the embedded seed data.
func Default() *Catalog {
	c, err := Load(strings.NewReader(string(seedYAML)))
	if err != nil {
		// The embedded seed is validated by tests; failing to parse it is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return c
}

func build(seed seedFile) *Catalog {
	c := &Catalog{
		products:   seed.Products,
		categories: seed.Categories,
		banners:    seed.Banners,
		pinCodes:   seed.PinCodes,
		byID:       make(map[string]Product, len(seed.Products)),
		byPin:      make(map[string]PinCode, len(seed.PinCodes)),
	}
	for _, p := range seed.Products {
		c.byID[p.ID] = p
	}
	for _, pc := range seed.PinCodes {
		c.byPin[pc.Pin] = pc
	}
	sort.SliceStable(c.categories, func(i, j int) bool { return c.categories[i].Order < c.categories[j].Order })
	sort.SliceStable(c.banners, func(i, j int) bool { return c.banners[i].Order < c.banners[j].Order })
	return c
}

// Products returns all products, available or not.
func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

// Product looks a product up by ID.
func (c *Catalog) Product(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Search returns available products whose name, description, or category
// contains the query, case-insensitively. An empty query matches everything
// available.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Product
	for _, p := range c.products {
		if !p.IsAvailable {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns active categories in display order.
func (c *Catalog) Categories() []Category {
	var out []Category
	for _, cat := range c.categories {
		if cat.IsActive {
			out = append(out, cat)
		}
	}
	return out
}

// Banners returns active banners in display order.
func (c *Catalog) Banners() []Banner {
	var out []Banner
	for _, b := range c.banners {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out
}

// PinCodes returns the full deliverable-area table.
func (c *Catalog) PinCodes() []PinCode {
	return append([]PinCode(nil), c.pinCodes...)
}

// PinCode reports whether the given pin is deliverable.
func (c *Catalog) PinCode(pin string) (PinCode, bool) {
	pc, ok := c.byPin[pin]
	return pc, ok
}
