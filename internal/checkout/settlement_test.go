package checkout

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/traveldeskerala-ui/efresh/internal/cart"
	"github.com/traveldeskerala-ui/efresh/internal/catalog"
	"github.com/traveldeskerala-ui/efresh/internal/config"
	"github.com/traveldeskerala-ui/efresh/internal/customer"
	"github.com/traveldeskerala-ui/efresh/internal/loyalty"
	"github.com/traveldeskerala-ui/efresh/internal/order"
	"github.com/traveldeskerala-ui/efresh/internal/storage"
	"github.com/traveldeskerala-ui/efresh/internal/timeslot"
)

var testNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// dayPlus2 is comfortably past the 20h lead time at 09:00.
const dayPlus2 = "2025-03-12"

func validDetails() DeliveryDetails {
	return DeliveryDetails{
		Name:     "Anu Thomas",
		Phone:    "9876543210",
		PinCode:  "682011",
		Address:  "12 Canal Road, Kadavanthra",
		Landmark: "Opposite St. Mary's Church",
	}
}

func validRequest() Request {
	return Request{
		Details:      validDetails(),
		DeliveryDate: dayPlus2,
		TimeSlot:     timeslot.Evening,
	}
}

func product(id string, price int) (catalog.Product, catalog.Variant) {
	v := catalog.Variant{Weight: catalog.Weight500g, Price: price}
	p := catalog.Product{ID: id, Name: "Product " + id, Variants: []catalog.Variant{v}, IsAvailable: true}
	return p, v
}

func cartWithSubtotal(subtotal int) *cart.Cart {
	c := cart.New()
	p, v := product("1", subtotal)
	c.Add(p, v, 1)
	return c
}

func newSettlement(st storage.Store) *Settlement {
	return New(st, config.Default(), fixedClock, zap.NewNop())
}

func selectArea(t *testing.T, st storage.Store) {
	t.Helper()
	err := st.Set(storage.KeyUserPin, catalog.PinCode{Pin: "682011", Area: "Ernakulam North", Region: "Central Kochi"})
	if err != nil {
		t.Fatalf("select area: %v", err)
	}
}

func TestPlaceOrder_GuestEndToEnd(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)
	crt := cartWithSubtotal(500)

	o, err := s.PlaceOrder(crt, nil, validRequest())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if o.Status != order.StatusConfirmed {
		t.Errorf("expected status confirmed, got %s", o.Status)
	}
	if o.Subtotal != 500 || o.DeliveryFee != 0 || o.Total != 500 {
		t.Errorf("unexpected amounts: subtotal=%d fee=%d total=%d", o.Subtotal, o.DeliveryFee, o.Total)
	}

	// A new account is created from the delivery details with the
	// first-order bonus applied.
	cust, err := customer.Load(st)
	if err != nil || cust == nil {
		t.Fatalf("expected a customer record, err=%v", err)
	}
	if cust.TotalPurchases != 500 {
		t.Errorf("expected totalPurchases 500, got %d", cust.TotalPurchases)
	}
	if cust.LoyaltyPoints != loyalty.FirstOrderBonus {
		t.Errorf("expected loyaltyPoints %d, got %d", loyalty.FirstOrderBonus, cust.LoyaltyPoints)
	}
	if cust.Name != "Anu Thomas" || cust.Email != "9876543210@guest.local" {
		t.Errorf("unexpected profile: %+v", cust)
	}
	if def, ok := cust.DefaultAddress(); !ok || def.PinCode != "682011" {
		t.Errorf("expected default address from delivery details, got %+v", def)
	}
	if o.CustomerID != cust.ID {
		t.Errorf("order customer %s != profile %s", o.CustomerID, cust.ID)
	}

	// Cart is cleared and persisted empty.
	if !crt.Empty() {
		t.Error("expected cart cleared after settlement")
	}
	reloaded, err := cart.Load(st)
	if err != nil || !reloaded.Empty() {
		t.Errorf("expected persisted cart empty, err=%v", err)
	}

	// Order is at the head of history.
	orders, err := order.NewHistory(st).List()
	if err != nil || len(orders) != 1 || orders[0].ID != o.ID {
		t.Errorf("expected order in history, got %v err=%v", orders, err)
	}

	// Last slot was recorded.
	var last timeslot.Window
	if ok, _ := st.Get(storage.KeyLastTimeSlot, &last); !ok || last != timeslot.Evening {
		t.Errorf("expected last time slot recorded, got %q", last)
	}
}

func TestPlaceOrder_BelowMinimumRejectedWithoutMutation(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)
	crt := cartWithSubtotal(80)

	_, err := s.PlaceOrder(crt, nil, validRequest())

	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if crt.Empty() {
		t.Error("cart must be untouched on rejection")
	}
	if cust, _ := customer.Load(st); cust != nil {
		t.Error("no customer must be created on rejection")
	}
	if orders, _ := order.NewHistory(st).List(); len(orders) != 0 {
		t.Error("no order must be stored on rejection")
	}
}

func TestPlaceOrder_FieldValidation(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"missing name", func(r *Request) { r.Details.Name = "  " }, "name"},
		{"missing phone", func(r *Request) { r.Details.Phone = "" }, "phone"},
		{"missing address", func(r *Request) { r.Details.Address = "" }, "address"},
		{"missing landmark", func(r *Request) { r.Details.Landmark = "" }, "landmark"},
		{"short pin", func(r *Request) { r.Details.PinCode = "6820" }, "pinCode"},
		{"alphabetic pin", func(r *Request) { r.Details.PinCode = "68201a" }, "pinCode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := s.PlaceOrder(cartWithSubtotal(500), nil, req)

			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("expected settlement error, got %v", err)
			}
			if serr.Code != CodeValidation || serr.Field != tt.field {
				t.Errorf("expected validation error on %q, got code=%s field=%q", tt.field, serr.Code, serr.Field)
			}
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	_, err := s.PlaceOrder(cart.New(), nil, validRequest())
	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestPlaceOrder_NoDeliveryAreaSelected(t *testing.T) {
	st := storage.NewMemory() // no pin stored
	s := newSettlement(st)

	_, err := s.PlaceOrder(cartWithSubtotal(500), nil, validRequest())
	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodeValidation {
		t.Fatalf("expected validation error for missing area, got %v", err)
	}
}

func TestPlaceOrder_SlotUnavailable(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	t.Run("slot past the cutoff", func(t *testing.T) {
		// At 09:00 the next-day morning window is 25h away and fine, but an
		// afternoon clock closes it.
		late := New(st, config.Default(), func() time.Time {
			return time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
		}, zap.NewNop())

		req := validRequest()
		req.DeliveryDate = "2025-03-11"
		req.TimeSlot = timeslot.Morning

		_, err := late.PlaceOrder(cartWithSubtotal(500), nil, req)
		var serr *Error
		if !errors.As(err, &serr) || serr.Code != CodeSlotUnavailable {
			t.Fatalf("expected slot-unavailable error, got %v", err)
		}
	})

	t.Run("date outside offered range", func(t *testing.T) {
		req := validRequest()
		req.DeliveryDate = "2025-03-20"

		_, err := s.PlaceOrder(cartWithSubtotal(500), nil, req)
		var serr *Error
		if !errors.As(err, &serr) || serr.Code != CodeSlotUnavailable {
			t.Fatalf("expected slot-unavailable error, got %v", err)
		}
	})

	t.Run("missing slot selection", func(t *testing.T) {
		req := validRequest()
		req.TimeSlot = ""

		_, err := s.PlaceOrder(cartWithSubtotal(500), nil, req)
		var serr *Error
		if !errors.As(err, &serr) || serr.Code != CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestPlaceOrder_DeliveryFeeTiers(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	t.Run("below free-delivery threshold", func(t *testing.T) {
		o, err := s.PlaceOrder(cartWithSubtotal(200), nil, validRequest())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.DeliveryFee != 40 || o.Total != 240 {
			t.Errorf("expected fee 40 total 240, got fee=%d total=%d", o.DeliveryFee, o.Total)
		}
	})

	t.Run("at the threshold delivery is free", func(t *testing.T) {
		st := storage.NewMemory()
		selectArea(t, st)
		o, err := newSettlement(st).PlaceOrder(cartWithSubtotal(300), nil, validRequest())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.DeliveryFee != 0 {
			t.Errorf("expected free delivery at 300, got %d", o.DeliveryFee)
		}
	})
}

func TestPlaceOrder_LoyaltyRedemption(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	t.Run("capped at half the subtotal", func(t *testing.T) {
		cust := customer.New("Anu", "9876543210", "anu@example.com")
		cust.LoyaltyPoints = 1000
		cust.TotalPurchases = 2000

		req := validRequest()
		req.UseLoyalty = true

		o, err := s.PlaceOrder(cartWithSubtotal(1000), cust, req)
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.LoyaltyRedeemed != 500 {
			t.Errorf("expected 500 redeemed, got %d", o.LoyaltyRedeemed)
		}
		if o.Total != 500 { // 1000 + 0 fee - 500
			t.Errorf("expected total 500, got %d", o.Total)
		}

		updated, _ := customer.Load(st)
		// 1000 - 500 redeemed + 100 earned (10% of 1000).
		if updated.LoyaltyPoints != 600 {
			t.Errorf("expected balance 600, got %d", updated.LoyaltyPoints)
		}
	})

	t.Run("below unlock threshold redeems nothing", func(t *testing.T) {
		cust := customer.New("Anu", "9876543210", "anu@example.com")
		cust.LoyaltyPoints = 250
		cust.TotalPurchases = 2000

		req := validRequest()
		req.UseLoyalty = true

		o, err := s.PlaceOrder(cartWithSubtotal(1000), cust, req)
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.LoyaltyRedeemed != 0 {
			t.Errorf("expected no redemption below threshold, got %d", o.LoyaltyRedeemed)
		}
	})

	t.Run("opt-out redeems nothing", func(t *testing.T) {
		cust := customer.New("Anu", "9876543210", "anu@example.com")
		cust.LoyaltyPoints = 1000

		o, err := s.PlaceOrder(cartWithSubtotal(1000), cust, validRequest())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.LoyaltyRedeemed != 0 {
			t.Errorf("expected no redemption without opt-in, got %d", o.LoyaltyRedeemed)
		}
	})
}

func TestPlaceOrder_MergesExistingProfile(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	cust := customer.New("Old Name", "1111111111", "old@example.com")
	cust.TotalPurchases = 700
	if err := cust.Save(st); err != nil {
		t.Fatalf("save: %v", err)
	}

	req := validRequest()
	req.Details.Email = "new@example.com"

	o, err := s.PlaceOrder(cartWithSubtotal(450), cust, req)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	updated, _ := customer.Load(st)
	if updated.ID != cust.ID {
		t.Error("existing profile must keep its ID")
	}
	if updated.Name != "Anu Thomas" || updated.Phone != "9876543210" || updated.Email != "new@example.com" {
		t.Errorf("details not merged: %+v", updated)
	}
	// Second order: percentage accrual, not the flat bonus.
	if updated.LoyaltyPoints != 45 {
		t.Errorf("expected 45 points earned, got %d", updated.LoyaltyPoints)
	}
	if updated.TotalPurchases != 1150 {
		t.Errorf("expected purchases 1150, got %d", updated.TotalPurchases)
	}
	if o.CustomerID != cust.ID {
		t.Errorf("order bound to wrong customer: %s", o.CustomerID)
	}

	// The caller's copy is not mutated; the persisted profile is the result.
	if cust.Name != "Old Name" {
		t.Error("caller's customer was mutated")
	}
}

// failingStore wraps a Store and fails writes to one key, to exercise the
// all-or-nothing commit.
type failingStore struct {
	storage.Store
	failKey string
}

func (f *failingStore) Set(key string, value any) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.Store.Set(key, value)
}

func TestPlaceOrder_ProfileWriteFailureRollsBackOrder(t *testing.T) {
	inner := storage.NewMemory()
	st := &failingStore{Store: inner, failKey: storage.KeyUser}
	selectArea(t, inner)
	s := newSettlement(st)
	crt := cartWithSubtotal(500)

	_, err := s.PlaceOrder(crt, nil, validRequest())

	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodePersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if orders, _ := order.NewHistory(inner).List(); len(orders) != 0 {
		t.Error("order list must be rolled back when the profile write fails")
	}
	if crt.Empty() {
		t.Error("cart must not be cleared when settlement fails")
	}
}

func TestPlaceOrder_OrderWriteFailureLeavesEverythingUntouched(t *testing.T) {
	inner := storage.NewMemory()
	st := &failingStore{Store: inner, failKey: storage.KeyOrders}
	selectArea(t, inner)
	s := newSettlement(st)
	crt := cartWithSubtotal(500)

	_, err := s.PlaceOrder(crt, nil, validRequest())

	var serr *Error
	if !errors.As(err, &serr) || serr.Code != CodePersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if cust, _ := customer.Load(inner); cust != nil {
		t.Error("no profile must be written when the order write fails")
	}
	if crt.Empty() {
		t.Error("cart must not be cleared when settlement fails")
	}
}

func TestPlaceOrder_SnapshotIsImmuneToLaterCatalogChanges(t *testing.T) {
	st := storage.NewMemory()
	selectArea(t, st)
	s := newSettlement(st)

	p, v := product("1", 500)
	crt := cart.New()
	crt.Add(p, v, 1)

	o, err := s.PlaceOrder(crt, nil, validRequest())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Mutate the catalog product after placement.
	p.Variants[0].Price = 9999

	stored, found, err := order.NewHistory(st).Get(o.ID)
	if err != nil || !found {
		t.Fatalf("get order: found=%v err=%v", found, err)
	}
	if stored.Items[0].Variant.Price != 500 {
		t.Errorf("order snapshot changed retroactively: %d", stored.Items[0].Variant.Price)
	}
	if stored.Subtotal != 500 {
		t.Errorf("order subtotal changed retroactively: %d", stored.Subtotal)
	}
}
