package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMillion converts million-denominated business thresholds
// (volume tiers, withholding spend floor, loyalty spend bands) into minor
// units. Every such constant derives from this value so the scales cannot
// drift apart.
const MinorUnitsPerMillion int64 = 1_000_000_000

var (
	// ErrCurrencyMismatch is returned by any arithmetic between amounts of
	// differing currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrZeroDivisor is returned when dividing an amount by zero.
	ErrZeroDivisor = errors.New("division by zero")
)

var half = decimal.New(5, -1)

// Money is a fixed-point monetary amount expressed in minor units of an ISO
// currency. The zero value is zero of the empty currency and is only useful
// as a placeholder.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New builds a Money from minor units and a currency code.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns the zero amount of the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

func (m Money) guard(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: %q vs %q", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return nil
}

// Add returns m + o. Fails on currency mismatch.
func (m Money) Add(o Money) (Money, error) {
	if err := m.guard(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Sub returns m - o. Fails on currency mismatch.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.guard(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}, nil
}

// Mul scales the amount by rate using exact decimal arithmetic, rounding to
// the nearest minor unit half-up (ties go toward positive infinity). This is
// the single rounding policy for all monetary math in the engine.
func (m Money) Mul(rate decimal.Decimal) Money {
	scaled := decimal.NewFromInt(m.Amount).Mul(rate)
	return Money{Amount: roundHalfUp(scaled), Currency: m.Currency}
}

// Div divides the amount by divisor with the same half-up rounding as Mul.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: %d %s", ErrZeroDivisor, m.Amount, m.Currency)
	}
	scaled := decimal.NewFromInt(m.Amount).Div(divisor)
	return Money{Amount: roundHalfUp(scaled), Currency: m.Currency}, nil
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.guard(o); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < o.Amount:
		return -1, nil
	case m.Amount > o.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal reports whether the two values share amount and currency.
func (m Money) Equal(o Money) bool {
	return m.Amount == o.Amount && m.Currency == o.Currency
}

// Max returns the greater of the two amounts. Fails on currency mismatch.
func (m Money) Max(o Money) (Money, error) {
	cmp, err := m.Cmp(o)
	if err != nil {
		return Money{}, err
	}
	if cmp >= 0 {
		return m, nil
	}
	return o, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// String renders the raw minor-unit amount with its currency code.
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

// roundHalfUp truncates a decimal to the nearest integer minor unit with
// ties rounding toward positive infinity.
func roundHalfUp(d decimal.Decimal) int64 {
	floor := d.Floor()
	if d.Sub(floor).Cmp(half) >= 0 {
		return floor.IntPart() + 1
	}
	return floor.IntPart()
}
