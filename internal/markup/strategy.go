package markup

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/complexity"
	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

// Strategy computes the markup for one customer tier. Implementations own
// their formula; callers may only rely on the markup being non-negative and
// in the base cost's currency.
type Strategy interface {
	CalculateMarkup(baseCost money.Money, cx complexity.Snapshot) money.Money
}

var (
	standardRate  = decimal.RequireFromString("0.30")
	premiumRate   = decimal.RequireFromString("0.25")
	corporateRate = decimal.RequireFromString("0.20")
	vipRate       = decimal.RequireFromString("0.15")

	// customUplift compensates for the engineering overhead of custom-level
	// orders on top of every tier rate.
	customUplift = decimal.RequireFromString("0.02")
)

// Standard is the default retail markup.
type Standard struct{}

// CalculateMarkup implements Strategy.
func (Standard) CalculateMarkup(baseCost money.Money, cx complexity.Snapshot) money.Money {
	return apply(baseCost, cx, standardRate)
}

// Premium rewards premium members with a reduced rate.
type Premium struct{}

// CalculateMarkup implements Strategy.
func (Premium) CalculateMarkup(baseCost money.Money, cx complexity.Snapshot) money.Money {
	return apply(baseCost, cx, premiumRate)
}

// Corporate prices negotiated corporate accounts.
type Corporate struct{}

// CalculateMarkup implements Strategy.
func (Corporate) CalculateMarkup(baseCost money.Money, cx complexity.Snapshot) money.Money {
	return apply(baseCost, cx, corporateRate)
}

// VIP carries the lowest rate in exchange for volume commitments.
type VIP struct{}

// CalculateMarkup implements Strategy.
func (VIP) CalculateMarkup(baseCost money.Money, cx complexity.Snapshot) money.Money {
	return apply(baseCost, cx, vipRate)
}

func apply(baseCost money.Money, cx complexity.Snapshot, rate decimal.Decimal) money.Money {
	if cx.Level == complexity.LevelCustom {
		rate = rate.Add(customUplift)
	}
	m := baseCost.Mul(rate)
	if m.IsNegative() {
		return money.Zero(baseCost.Currency)
	}
	return m
}

// ForCustomer selects the strategy matching the customer's tier. Unknown
// tiers fall back to the standard strategy.
func ForCustomer(c customer.Snapshot) Strategy {
	switch c.Tier {
	case customer.TierVIP:
		return VIP{}
	case customer.TierCorporate:
		return Corporate{}
	case customer.TierPremium:
		return Premium{}
	default:
		return Standard{}
	}
}
