// Package checkout settles an order: it validates the delivery details,
// resolves the fee tier and loyalty redemption, snapshots the cart into an
// immutable order, and persists the order together with the updated profile
// as one all-or-nothing unit.
package checkout

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
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

var pinPattern = regexp.MustCompile(`^\d{6}$`)

// DeliveryDetails is the checkout form. Email and OptionalPhone are
// optional; everything else is required.
type DeliveryDetails struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	PinCode       string `json:"pinCode"`
	Address       string `json:"address"`
	Landmark      string `json:"landmark"`
	OptionalPhone string `json:"optionalPhone,omitempty"`
}

// Request is one settlement attempt.
type Request struct {
	Details      DeliveryDetails `json:"details"`
	DeliveryDate string          `json:"deliveryDate"`
	TimeSlot     timeslot.Window `json:"timeSlot"`
	UseLoyalty   bool            `json:"useLoyalty"`
}

// Settlement executes checkout against the session store. The current
// instant is injected so slot validation stays deterministic under test.
type Settlement struct {
	store  storage.Store
	cfg    config.Settings
	clock  func() time.Time
	logger *zap.Logger
}

func New(st storage.Store, cfg config.Settings, clock func() time.Time, logger *zap.Logger) *Settlement {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settlement{store: st, cfg: cfg, clock: clock, logger: logger}
}

// DeliveryFee resolves the fee tier: a flat fee below the free-delivery
// subtotal, waived at or above it.
func (s *Settlement) DeliveryFee(subtotal int) int {
	if subtotal >= s.cfg.FreeDeliveryMin {
		return 0
	}
	return s.cfg.DeliveryFee
}

// PlaceOrder runs the settlement algorithm. On any validation failure it
// returns before touching any state. After validation it computes every new
// value first, then writes the order list, the profile, and the cleared
// cart; a failed profile write rolls the order list back so no partial
// settlement is observable.
func (s *Settlement) PlaceOrder(crt *cart.Cart, cust *customer.Customer, req Request) (*order.Order, error) {
	now := s.clock()

	if err := s.validate(crt, req, now); err != nil {
		return nil, err
	}

	// Never trust a cached total; the aggregate recomputes from its lines.
	subtotal := crt.Subtotal()
	fee := s.DeliveryFee(subtotal)

	redeemed := 0
	if req.UseLoyalty && cust != nil {
		redeemed = loyalty.Redeemable(cust.LoyaltyPoints, subtotal)
	}
	total := subtotal + fee - redeemed

	addr := customer.Address{
		ID:            uuid.NewString(),
		Name:          req.Details.Name,
		Phone:         req.Details.Phone,
		Address:       req.Details.Address,
		PinCode:       req.Details.PinCode,
		Landmark:      req.Details.Landmark,
		OptionalPhone: req.Details.OptionalPhone,
		IsDefault:     true,
	}

	updated := s.mergeProfile(cust, req.Details, addr)

	newOrder := order.Order{
		ID:              uuid.NewString(),
		CustomerID:      updated.ID,
		Items:           crt.Snapshot(),
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		LoyaltyRedeemed: redeemed,
		Total:           total,
		DeliveryDate:    req.DeliveryDate,
		TimeSlot:        req.TimeSlot,
		Address:         addr,
		Status:          order.StatusConfirmed,
		CreatedAt:       now,
	}

	updated.LoyaltyPoints, updated.TotalPurchases, _ = loyalty.Settle(
		updated.LoyaltyPoints, updated.TotalPurchases, subtotal, redeemed)

	if err := s.commit(crt, updated, newOrder, req.TimeSlot); err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", newOrder.ID),
		zap.String("customer_id", updated.ID),
		zap.Int("subtotal", subtotal),
		zap.Int("delivery_fee", fee),
		zap.Int("loyalty_redeemed", redeemed),
		zap.Int("total", total),
		zap.String("delivery_date", req.DeliveryDate),
		zap.String("time_slot", string(req.TimeSlot)),
	)
	return &newOrder, nil
}

// validate checks every precondition before any mutation. Failures name the
// offending field where there is one.
func (s *Settlement) validate(crt *cart.Cart, req Request, now time.Time) error {
	if crt == nil || crt.Empty() {
		return NewPrecondition("cart is empty")
	}

	var area catalog.PinCode
	ok, err := s.store.Get(storage.KeyUserPin, &area)
	if err != nil {
		return NewPersistence(err)
	}
	if !ok || area.Pin == "" {
		return NewPrecondition("delivery area is not selected")
	}

	if subtotal := crt.Subtotal(); subtotal < s.cfg.MinOrder {
		return NewPrecondition("subtotal is below the minimum order amount")
	}

	d := req.Details
	if strings.TrimSpace(d.Name) == "" {
		return NewValidation("name", "name is required")
	}
	if strings.TrimSpace(d.Phone) == "" {
		return NewValidation("phone", "phone number is required")
	}
	if strings.TrimSpace(d.Address) == "" {
		return NewValidation("address", "address is required")
	}
	if strings.TrimSpace(d.Landmark) == "" {
		return NewValidation("landmark", "landmark is required")
	}
	if !pinPattern.MatchString(strings.TrimSpace(d.PinCode)) {
		return NewValidation("pinCode", "PIN code must be 6 digits")
	}

	if req.DeliveryDate == "" || req.TimeSlot == "" {
		return NewPrecondition("delivery date and time slot are required")
	}
	if !timeslot.IsBookable(now, req.DeliveryDate, req.TimeSlot) {
		return NewSlotUnavailable(req.DeliveryDate, string(req.TimeSlot))
	}
	return nil
}

// mergeProfile returns the post-order profile: a new account built from the
// delivery details for guests, or the existing profile with the checkout
// details merged in. The caller's customer is never mutated.
func (s *Settlement) mergeProfile(cust *customer.Customer, d DeliveryDetails, addr customer.Address) *customer.Customer {
	if cust == nil {
		email := d.Email
		if email == "" {
			email = d.Phone + "@guest.local"
		}
		fresh := customer.New(d.Name, d.Phone, email)
		fresh.PinCode = d.PinCode
		fresh.UpsertAddress(addr)
		return fresh
	}

	updated := cust.Clone()
	updated.Name = d.Name
	updated.Phone = d.Phone
	if d.Email != "" {
		updated.Email = d.Email
	}
	updated.PinCode = d.PinCode
	updated.UpsertAddress(addr)
	return updated
}

// commit performs the writes. The order list and profile form the logical
// transaction: if the profile write fails the order list is restored, so
// either both land or neither does. The cart clear and last-slot note are
// best-effort bookkeeping after the transaction committed.
func (s *Settlement) commit(crt *cart.Cart, cust *customer.Customer, o order.Order, slot timeslot.Window) error {
	history := order.NewHistory(s.store)

	previous, err := history.List()
	if err != nil {
		return NewPersistence(err)
	}
	if err := history.Prepend(o); err != nil {
		return NewPersistence(err)
	}
	if err := cust.Save(s.store); err != nil {
		if rbErr := history.ReplaceAll(previous); rbErr != nil {
			s.logger.Error("order rollback failed; store may hold an orphaned order",
				zap.String("order_id", o.ID), zap.Error(rbErr))
		}
		return NewPersistence(err)
	}

	crt.Clear()
	if err := crt.Save(s.store); err != nil {
		s.logger.Warn("failed to persist cleared cart", zap.Error(err))
	}
	if err := s.store.Set(storage.KeyLastTimeSlot, slot); err != nil {
		s.logger.Warn("failed to record last time slot", zap.Error(err))
	}
	return nil
}
