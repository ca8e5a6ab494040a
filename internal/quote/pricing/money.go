// Package pricing implements the multi-margin computation engine behind
// quotes. Every monetary value is rounded to 2 decimals, half away from
// zero, before it is stored or summed.
package pricing

import "github.com/shopspring/decimal"

// Round2 applies the canonical monetary rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidCost reports whether a unit cost is usable as a pricing basis:
// non-negative with at most 2 significant decimal places. Trailing zeros
// do not count, so "10.100" is as valid as "10.10".
func ValidCost(cost decimal.Decimal) bool {
	return !cost.IsNegative() && cost.Equal(cost.Round(2))
}

// ValidMargin reports whether a margin percentage is acceptable. Negative
// margins are rejected; zero is a valid explicit margin.
func ValidMargin(margin decimal.Decimal) bool {
	return !margin.IsNegative()
}
