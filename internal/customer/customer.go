// Package customer models the storefront account: identity, contact
// details, saved addresses, and the loyalty counters the settlement flow
// maintains.
package customer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/traveldeskerala-ui/efresh/internal/storage"
)

// Address is a saved delivery address. At most one address in a customer's
// list is the default.
type Address struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PinCode       string `json:"pinCode"`
	Landmark      string `json:"landmark"`
	OptionalPhone string `json:"optionalPhone,omitempty"`
	IsDefault     bool   `json:"isDefault"`
}

// Customer is the persisted profile. LoyaltyPoints never goes negative;
// TotalPurchases accumulates settled subtotals.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	PinCode        string    `json:"pinCode,omitempty"`
	LoyaltyPoints  int       `json:"loyaltyPoints"`
	TotalPurchases int       `json:"totalPurchases"`
	Addresses      []Address `json:"addresses"`
	IsAdmin        bool      `json:"isAdmin,omitempty"`
}

// New creates a profile with a fresh ID and zeroed loyalty counters.
func New(name, phone, email string) *Customer {
	return &Customer{
		ID:    uuid.NewString(),
		Name:  name,
		Phone: phone,
		Email: email,
	}
}

// Clone deep-copies the customer so callers can stage changes without
// touching the live profile.
func (c *Customer) Clone() *Customer {
	cp := *c
	cp.Addresses = append([]Address(nil), c.Addresses...)
	return &cp
}

// UpsertAddress inserts or replaces an address by ID. When the incoming
// address is the default, every other address loses the flag so the
// single-default invariant holds.
func (c *Customer) UpsertAddress(a Address) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.IsDefault {
		for i := range c.Addresses {
			c.Addresses[i].IsDefault = false
		}
	}
	for i := range c.Addresses {
		if c.Addresses[i].ID == a.ID {
			c.Addresses[i] = a
			return
		}
	}
	c.Addresses = append(c.Addresses, a)
}

// SetDefaultAddress marks the given address as default and un-sets all
// others. Unknown IDs leave the list unchanged.
func (c *Customer) SetDefaultAddress(id string) {
	found := false
	for i := range c.Addresses {
		if c.Addresses[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return
	}
	for i := range c.Addresses {
		c.Addresses[i].IsDefault = c.Addresses[i].ID == id
	}
}

// DefaultAddress returns the default address, falling back to the first one.
func (c *Customer) DefaultAddress() (Address, bool) {
	for _, a := range c.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(c.Addresses) > 0 {
		return c.Addresses[0], true
	}
	return Address{}, false
}

// Load reads the profile from the session store. A nil customer with nil
// error means no account exists yet (guest session).
func Load(st storage.Store) (*Customer, error) {
	var c Customer
	ok, err := st.Get(storage.KeyUser, &c)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Save writes the profile to the session store.
func (c *Customer) Save(st storage.Store) error {
	if err := st.Set(storage.KeyUser, c); err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}
