// Package wishlist keeps the session's saved-for-later product IDs.
package wishlist

import (
	"fmt"

	"github.com/traveldeskerala-ui/efresh/internal/storage"
)

// Wishlist reads and writes the saved product ID list through the session
// store. Order of insertion is preserved.
type Wishlist struct {
	store storage.Store
}

func New(st storage.Store) *Wishlist {
	return &Wishlist{store: st}
}

// List returns the saved product IDs in insertion order.
func (w *Wishlist) List() ([]string, error) {
	var ids []string
	if _, err := w.store.Get(storage.KeyWishlist, &ids); err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	return ids, nil
}

// Contains reports whether the product is wishlisted.
func (w *Wishlist) Contains(productID string) (bool, error) {
	ids, err := w.List()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

// Toggle adds the product if absent and removes it if present, returning
// whether it is wishlisted afterwards.
func (w *Wishlist) Toggle(productID string) (bool, error) {
	ids, err := w.List()
	if err != nil {
		return false, err
	}
	for i, id := range ids {
		if id == productID {
			ids = append(ids[:i], ids[i+1:]...)
			return false, w.save(ids)
		}
	}
	ids = append(ids, productID)
	return true, w.save(ids)
}

// Remove drops the product if present.
func (w *Wishlist) Remove(productID string) error {
	ids, err := w.List()
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == productID {
			return w.save(append(ids[:i], ids[i+1:]...))
		}
	}
	return nil
}

// Clear empties the wishlist.
func (w *Wishlist) Clear() error {
	return w.save(nil)
}

func (w *Wishlist) save(ids []string) error {
	if err := w.store.Set(storage.KeyWishlist, ids); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return nil
}
