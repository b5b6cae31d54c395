package nexo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of minor-unit digits in a major unit.
const minorUnitExponent = 2

// MinorToMajor converts an integer amount in minor units (cents) to the
// exact major-unit value, e.g. 1 -> 0.01 and 12345 -> 123.45.
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent)
}

// MajorToMinor is the inverse of MinorToMajor. It fails when the value has
// more fractional digits than a minor unit can hold or does not fit in an
// int64 count of minor units.
func MajorToMinor(major decimal.Decimal) (int64, error) {
	shifted := major.Shift(minorUnitExponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor-unit precision", major)
	}
	minor := shifted.BigInt()
	if !minor.IsInt64() {
		return 0, fmt.Errorf("amount %s overflows int64 minor units", major)
	}
	return minor.Int64(), nil
}
