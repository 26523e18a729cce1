package money

import (
	"fmt"
	"math"
	"strings"
)

// DiscountType distinguishes percentage discounts from fixed ones.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is the discount applied to an order at checkout.
//
// Value is a percentage (0-100) for percentage discounts and a MAJOR unit
// amount for fixed discounts.
type Discount struct {
	Type  DiscountType `json:"type" yaml:"type"`
	Value float64      `json:"value" yaml:"value"`
	Code  string       `json:"code" yaml:"code"`
}

// ParseDiscountType parses a discount type name.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(s))) {
	case DiscountPercentage:
		return DiscountPercentage, nil
	case DiscountFixed:
		return DiscountFixed, nil
	default:
		return "", fmt.Errorf("unknown discount type %q", s)
	}
}

// DiscountValue returns the discount in minor units for the given subtotal.
// A nil discount is worth nothing.
func DiscountValue(subtotal MinorAmount, d *Discount) MinorAmount {
	if d == nil {
		return 0
	}
	switch d.Type {
	case DiscountPercentage:
		return MinorAmount(math.Round(float64(subtotal) * d.Value / 100))
	case DiscountFixed:
		return ToMinor(MajorAmount(d.Value))
	default:
		return 0
	}
}
