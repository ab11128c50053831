// Package types provides common quantity types and helpers.
package types

import (
	"github.com/shopspring/decimal"
)

// Kilos represents a mass in kilograms with full precision.
// Uses decimal.Decimal to avoid floating-point drift across thousands of
// conversions and ledger recomputations.
type Kilos = decimal.Decimal

// Quintales represents a mass in quintales (qq). The kilogram equivalent of a
// quintal depends on the convention in force at the call site (see
// internal/domain/units), so this is a distinct alias rather than Kilos.
type Quintales = decimal.Decimal

// NewFromString parses a decimal quantity from its string form.
// This is the preferred constructor for values arriving over the wire.
func NewFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustDecimal creates a decimal from a string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns the zero quantity.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Sum adds a slice of quantities.
func Sum(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}
