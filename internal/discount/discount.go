// Package discount resolves order coupon codes to the discount they granted.
//
// Catalogue files are gzipped text with one entry per line:
//
//	CODE,type,value
//
// where type is "percentage" or "fixed" and a fixed value is in major units.
// Blank lines and lines starting with '#' are ignored.
package discount

import (
	"context"

	"orderdesk/internal/money"
)

// Catalogue resolves coupon codes.
type Catalogue interface {
	// Lookup returns the discount for a coupon code.
	Lookup(code string) (*money.Discount, bool)

	// Size returns the number of entries across all loaded files.
	Size() int

	// Close releases resources held by the catalogue.
	Close() error
}

// Table is one loaded catalogue file.
type Table interface {
	// Get returns the discount stored for a normalised code.
	Get(code string) (money.Discount, bool)

	// Size returns the number of entries in the table.
	Size() int
}

// Loader defines the interface for loading catalogue files.
type Loader interface {
	// Load reads a gzipped catalogue file and returns its Table.
	Load(ctx context.Context, path string) (Table, error)
}
