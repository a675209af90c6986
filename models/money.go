package models

import "github.com/shopspring/decimal"

// Money is an amount in minor currency units (centavos).
type Money int64

// FromMajor converts a major-unit amount into Money, rounding half-up.
func FromMajor(v float64) Money {
	return Money(decimal.NewFromFloat(v).Shift(2).Round(0).IntPart())
}

// Decimal returns the amount in minor units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// Major returns the amount in major units.
func (m Money) Major() float64 {
	return m.Decimal().Shift(-2).InexactFloat64()
}

// Known reports whether the amount represents an observed, positive value.
func (m Money) Known() bool {
	return m > 0
}

// RoundMoney rounds a decimal minor-unit amount half-up to the nearest
// minor unit. Negative results are clamped to zero.
func RoundMoney(d decimal.Decimal) Money {
	m := Money(d.Round(0).IntPart())
	if m < 0 {
		return 0
	}
	return m
}

func (m Money) String() string {
	return m.Decimal().Shift(-2).StringFixed(2)
}
