package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by an Amount.
const Decimals = 2

var (
	// ErrInvalidAmount is returned when an amount is not a positive value with
	// at most two fractional digits.
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")
	// ErrAmountTooLarge is returned when an amount does not fit the minor-unit range.
	ErrAmountTooLarge = errors.New("amount exceeds maximum supported value")
)

// Amount is a monetary value in minor units (cents).
type Amount int64

var maxMajor = decimal.New(math.MaxInt64, -Decimals)

// FromDecimal converts a major-unit decimal ("25.50") to minor units.
// The value must be strictly positive and carry no more than two fractional digits.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(Decimals)) {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThan(maxMajor) {
		return 0, ErrAmountTooLarge
	}
	return Amount(d.Shift(Decimals).IntPart()), nil
}

// Parse parses a major-unit decimal string.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Decimals)
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Decimals)
}

// Int64 returns the minor-unit value.
func (a Amount) Int64() int64 {
	return int64(a)
}

// AddChecked returns a+b or false when the sum would overflow.
func AddChecked(a, b Amount) (Amount, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
