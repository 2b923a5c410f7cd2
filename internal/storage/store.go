// Package storage provides the session key/value store the core persists
// through. Values round-trip through JSON per key; drivers differ only in
// where the bytes live (process memory, a JSON file, or a SQLite database).
package storage

import "fmt"

// Store is the persistence boundary of the core. Get decodes the stored
// value into out and reports whether the key existed; absent keys are not an
// error so callers can fall back to a zero value.
type Store interface {
	Get(key string, out any) (bool, error)
	Set(key string, value any) error
	Delete(key string) error
}

// Session key namespace. One JSON document per key.
const (
	KeyCart         = "ecfresh_cart"
	KeyUser         = "ecfresh_user"
	KeyOrders       = "ecfresh_orders"
	KeyWishlist     = "ecfresh_wishlist"
	KeyUserPin      = "ecfresh_user_pin"
	KeyLastTimeSlot = "ecfresh_last_time_slot"
)

// Open constructs a Store for the configured driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
