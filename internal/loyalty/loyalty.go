// Package loyalty holds the credit rules: when a balance may be spent, how
// much of an order it can cover, and what a completed order earns. All
// functions are pure; the settlement flow applies the results.
package loyalty

// UnlockThreshold is the minimum stored balance before any redemption is
// allowed.
const UnlockThreshold = 300

// redeemCapPercent limits redemption to half the order subtotal.
const redeemCapPercent = 50

// earnPercent is the regular accrual rate on the order subtotal.
const earnPercent = 10

// FirstOrderBonus is the flat award for a first-ever order, granted instead
// of the percentage accrual when the subtotal reaches FirstOrderMinSubtotal.
const (
	FirstOrderBonus       = 100
	FirstOrderMinSubtotal = 300
)

// Redeemable returns how much credit a balance can cover on the given
// subtotal: zero below the unlock threshold, otherwise the balance clamped
// to half the subtotal. The result never exceeds the stored balance, so the
// post-redemption balance cannot go negative.
func Redeemable(points, subtotal int) int {
	if points < UnlockThreshold {
		return 0
	}
	limit := subtotal * redeemCapPercent / 100
	if points < limit {
		return points
	}
	return limit
}

// Earned returns the points awarded for completing an order. A customer's
// first order (no prior purchases) earns the flat bonus when the subtotal
// qualifies; every other order earns the percentage, floored.
func Earned(totalPurchases, subtotal int) int {
	if totalPurchases == 0 && subtotal >= FirstOrderMinSubtotal {
		return FirstOrderBonus
	}
	return subtotal * earnPercent / 100
}

// Settle computes the post-order loyalty counters in one step: the new
// balance is old + earned - redeemed, and purchases grow by the subtotal.
// Callers must have clamped redeemed via Redeemable first.
func Settle(points, totalPurchases, subtotal, redeemed int) (newPoints, newTotalPurchases, earned int) {
	earned = Earned(totalPurchases, subtotal)
	return points + earned - redeemed, totalPurchases + subtotal, earned
}
