package discount

import (
	"strings"

	"orderdesk/internal/money"
)

// mapTable implements Table using a map for O(1) lookups.
type mapTable struct {
	entries map[string]money.Discount
}

// NewMapTable creates a new map-based table.
func NewMapTable(capacity int) Table {
	return newMapTable(capacity)
}

func newMapTable(capacity int) *mapTable {
	return &mapTable{
		entries: make(map[string]money.Discount, capacity),
	}
}

// Get returns the discount stored for a normalised code.
func (t *mapTable) Get(code string) (money.Discount, bool) {
	d, ok := t.entries[code]
	return d, ok
}

// Size returns the number of entries in the table.
func (t *mapTable) Size() int {
	return len(t.entries)
}

// Add stores a discount under its normalised code. Later entries win.
func (t *mapTable) Add(d money.Discount) {
	d.Code = Normalise(d.Code)
	t.entries[d.Code] = d
}

// Normalise returns the canonical form of a coupon code.
func Normalise(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
