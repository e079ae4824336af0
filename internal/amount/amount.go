// Package amount converts between user-facing decimal amounts and the
// unscaled integer base units the ledger engine operates on. All user-facing
// quantities carry exactly 4 fractional digits; internally one display unit
// equals 10^4 base units. Conversion never goes through floats.
package amount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of every display amount.
const Decimals = 4

// Scale converts a display amount string ("10.0000", "0.5") into base units
// (100000, 5000). Amounts with more than 4 fractional digits are rejected
// rather than rounded.
func Scale(display string) (int64, error) {
	d, err := decimal.NewFromString(display)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", display, err)
	}

	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", display, Decimals)
	}

	return shifted.IntPart(), nil
}

// Unscale formats base units back into a display string with exactly 4
// fractional digits. Unscale(Scale(a)) == a for every representable amount.
func Unscale(base int64) string {
	return decimal.New(base, -Decimals).StringFixed(Decimals)
}

// FromBase returns the decimal value of a base-unit amount, for persistence
// in decimal columns.
func FromBase(base int64) decimal.Decimal {
	return decimal.New(base, -Decimals)
}
