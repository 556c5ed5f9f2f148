// Package money holds the fixed-point currency helpers shared by every
// monetary computation in the engine. All amounts are shopspring decimals;
// float64 never carries money inside the core.
package money

import "github.com/shopspring/decimal"

// CentPlaces is the minor-unit precision for USD amounts.
const CentPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
)

// RoundToCents rounds half-up to the currency's minor unit. Each calculator
// rounds its own final result exactly once; intermediate math stays unrounded.
func RoundToCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Cents returns the amount in integer minor units. The input must already be
// rounded to cents; anything finer is truncated.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.NewFromInt(c).Div(hundred)
}

// Percent computes pct percent of an amount, unrounded. pct is expressed on
// the 0-100 scale.
func Percent(of, pct decimal.Decimal) decimal.Decimal {
	return of.Mul(pct).Div(hundred)
}

// FloorZero clamps negative amounts to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
