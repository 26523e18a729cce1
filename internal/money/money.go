// Package money holds the two currency units used across orders and refunds.
//
// Item prices and delivery fees are expressed in major units (the amount a
// customer reads on a receipt). Order totals and refunds are stored in minor
// units, which are major units scaled by 100. The two are distinct types so
// that mixing them requires an explicit conversion.
package money

import (
	"fmt"
	"math"
)

// minorPerMajor is the scale between the two units.
const minorPerMajor = 100

// MajorAmount is a human-facing currency amount, e.g. 12.50.
type MajorAmount float64

// MinorAmount is a scaled integer currency amount, e.g. 1250.
type MinorAmount int64

// ToMinor converts a major amount to minor units, rounding half away from zero.
func ToMinor(m MajorAmount) MinorAmount {
	return MinorAmount(math.Round(float64(m) * minorPerMajor))
}

// ToMajor converts a minor amount back to major units.
func ToMajor(m MinorAmount) MajorAmount {
	return MajorAmount(float64(m) / minorPerMajor)
}

// Times multiplies a major amount by an integer quantity.
func (m MajorAmount) Times(quantity int) MajorAmount {
	return m * MajorAmount(quantity)
}

// Min returns the smaller of two minor amounts.
func Min(a, b MinorAmount) MinorAmount {
	if a < b {
		return a
	}
	return b
}

// Format renders a minor amount in major units with two decimals.
func Format(m MinorAmount, currency string) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	s := fmt.Sprintf("%s%d.%02d", sign, m/minorPerMajor, m%minorPerMajor)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
