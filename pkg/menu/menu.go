// Package menu holds the fixed menu catalog offered to every table.
package menu

import (
	"github.com/google/uuid"

	"tableorders/pkg/order"
)

var names = []string{"Ramen", "Beef rice", "Beer"}

// Catalog returns the menu with fresh ids. Call it once at startup and share
// the result; ids differ between calls.
func Catalog() []order.MenuItem {
	items := make([]order.MenuItem, len(names))
	for i, name := range names {
		items[i] = order.MenuItem{ID: uuid.New(), Name: name}
	}
	return items
}
