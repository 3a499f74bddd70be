package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/money"
)

// ErrInvalidMarginConfig is returned for minimum margin rates of 100% or
// more. Config validation rejects these at startup; the guard re-checks so a
// bad rate can never divide by zero mid-calculation.
var ErrInvalidMarginConfig = errors.New("invalid minimum margin configuration")

// DefaultMinMarginRate is the 30% profit floor applied when no rate is
// configured.
var DefaultMinMarginRate = decimal.RequireFromString("0.30")

var one = decimal.NewFromInt(1)

// EnforceMinimumMargin returns the greater of the nominal price
// (cost + markup - discount + tax) and the margin-derived floor price
// (cost / (1 - minRate)).
func EnforceMinimumMargin(adjustedCost, markup, discount, tax money.Money, minRate decimal.Decimal) (money.Money, error) {
	if minRate.Cmp(one) >= 0 {
		return money.Money{}, fmt.Errorf("%w: rate %s", ErrInvalidMarginConfig, minRate)
	}

	preliminary, err := adjustedCost.Add(markup)
	if err != nil {
		return money.Money{}, fmt.Errorf("apply markup: %w", err)
	}
	preliminary, err = preliminary.Sub(discount)
	if err != nil {
		return money.Money{}, fmt.Errorf("apply discount: %w", err)
	}
	preliminary, err = preliminary.Add(tax)
	if err != nil {
		return money.Money{}, fmt.Errorf("apply tax: %w", err)
	}

	required, err := adjustedCost.Div(one.Sub(minRate))
	if err != nil {
		return money.Money{}, fmt.Errorf("margin floor: %w", err)
	}
	return preliminary.Max(required)
}
