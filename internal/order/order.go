// Package order defines the immutable order snapshot and its status
// lifecycle, plus the newest-first history persisted in the session store.
package order

import (
	"fmt"
	"time"

	"github.com/traveldeskerala-ui/efresh/internal/cart"
	"github.com/traveldeskerala-ui/efresh/internal/customer"
	"github.com/traveldeskerala-ui/efresh/internal/storage"
	"github.com/traveldeskerala-ui/efresh/internal/timeslot"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPacked    Status = "packed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is legal: the forward
// chain pending -> confirmed -> packed -> delivered, or cancellation from
// any non-terminal state.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusPacked
	case StatusPacked:
		return next == StatusDelivered
	}
	return false
}

// Order is a snapshot of everything the purchase depended on. Items and the
// address are deep copies; catalog changes after placement never reach a
// placed order. Only Status changes after creation.
type Order struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customerId"`
	Items           []cart.Line      `json:"items"`
	Subtotal        int              `json:"subtotal"`
	DeliveryFee     int              `json:"deliveryFee"`
	LoyaltyRedeemed int              `json:"loyaltyRedeemed"`
	Total           int              `json:"total"`
	DeliveryDate    string           `json:"deliveryDate"`
	TimeSlot        timeslot.Window  `json:"timeSlot"`
	Address         customer.Address `json:"address"`
	Status          Status           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// History reads and writes the order list, newest first.
type History struct {
	store storage.Store
}

func NewHistory(st storage.Store) *History {
	return &History{store: st}
}

// List returns all orders, newest first.
func (h *History) List() ([]Order, error) {
	var orders []Order
	if _, err := h.store.Get(storage.KeyOrders, &orders); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

// Get returns the order with the given ID.
func (h *History) Get(id string) (Order, bool, error) {
	orders, err := h.List()
	if err != nil {
		return Order{}, false, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, true, nil
		}
	}
	return Order{}, false, nil
}

// Prepend inserts a new order at the head of the history.
func (h *History) Prepend(o Order) error {
	orders, err := h.List()
	if err != nil {
		return err
	}
	orders = append([]Order{o}, orders...)
	if err := h.store.Set(storage.KeyOrders, orders); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

// ReplaceAll overwrites the stored list. The settlement transaction uses it
// as a compensating write when a later step fails.
func (h *History) ReplaceAll(orders []Order) error {
	if err := h.store.Set(storage.KeyOrders, orders); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

// UpdateStatus applies a lifecycle transition and persists the list. Illegal
// transitions and unknown IDs return an error without writing.
func (h *History) UpdateStatus(id string, next Status) (Order, error) {
	orders, err := h.List()
	if err != nil {
		return Order{}, err
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		if !orders[i].Status.CanTransition(next) {
			return Order{}, fmt.Errorf("order %s: illegal transition %s -> %s", id, orders[i].Status, next)
		}
		orders[i].Status = next
		if err := h.ReplaceAll(orders); err != nil {
			return Order{}, err
		}
		return orders[i], nil
	}
	return Order{}, fmt.Errorf("order %s not found", id)
}
