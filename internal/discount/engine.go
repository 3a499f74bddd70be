package discount

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/promo"
)

// VolumeTier maps a minimum order value in minor units to a discount rate.
type VolumeTier struct {
	MinAmount int64
	Rate      decimal.Decimal
}

// RateBand maps a minimum loyalty score to a discount rate.
type RateBand struct {
	MinScore int
	Rate     decimal.Decimal
}

// Config carries the immutable discount tables. Build it once at startup and
// never mutate it afterwards; the engine only reads from it.
type Config struct {
	VolumeTiers   []VolumeTier // sorted by MinAmount descending
	LoyaltyBands  []RateBand   // sorted by MinScore descending
	SeasonalRates map[time.Month]decimal.Decimal
	TierRates     map[customer.Tier]decimal.Decimal
	FirstTimeRate decimal.Decimal
	StackingCap   decimal.Decimal
}

// DefaultConfig returns the production discount tables.
func DefaultConfig() Config {
	return Config{
		VolumeTiers: []VolumeTier{
			{MinAmount: 500 * money.MinorUnitsPerMillion, Rate: decimal.RequireFromString("0.15")},
			{MinAmount: 200 * money.MinorUnitsPerMillion, Rate: decimal.RequireFromString("0.12")},
			{MinAmount: 100 * money.MinorUnitsPerMillion, Rate: decimal.RequireFromString("0.10")},
			{MinAmount: 50 * money.MinorUnitsPerMillion, Rate: decimal.RequireFromString("0.08")},
			{MinAmount: 20 * money.MinorUnitsPerMillion, Rate: decimal.RequireFromString("0.05")},
		},
		LoyaltyBands: []RateBand{
			{MinScore: 90, Rate: decimal.RequireFromString("0.10")},
			{MinScore: 75, Rate: decimal.RequireFromString("0.08")},
			{MinScore: 60, Rate: decimal.RequireFromString("0.06")},
			{MinScore: 45, Rate: decimal.RequireFromString("0.04")},
			{MinScore: 30, Rate: decimal.RequireFromString("0.02")},
		},
		SeasonalRates: map[time.Month]decimal.Decimal{
			time.January:   decimal.RequireFromString("0.03"),
			time.February:  decimal.RequireFromString("0.02"),
			time.March:     decimal.RequireFromString("0.01"),
			time.April:     decimal.RequireFromString("0.01"),
			time.May:       decimal.RequireFromString("0.02"),
			time.June:      decimal.RequireFromString("0.01"),
			time.July:      decimal.RequireFromString("0.01"),
			time.August:    decimal.RequireFromString("0.05"),
			time.September: decimal.RequireFromString("0.01"),
			time.October:   decimal.RequireFromString("0.02"),
			time.November:  decimal.RequireFromString("0.04"),
			time.December:  decimal.RequireFromString("0.05"),
		},
		TierRates: map[customer.Tier]decimal.Decimal{
			customer.TierVIP:       decimal.RequireFromString("0.08"),
			customer.TierPremium:   decimal.RequireFromString("0.05"),
			customer.TierCorporate: decimal.RequireFromString("0.03"),
			customer.TierStandard:  decimal.RequireFromString("0.01"),
		},
		FirstTimeRate: decimal.RequireFromString("0.03"),
		StackingCap:   decimal.RequireFromString("0.25"),
	}
}

// Breakdown details every discount component for auditing. Each component is
// computed against the same order value, never against a shrinking base.
type Breakdown struct {
	Volume       money.Money
	Loyalty      money.Money
	Seasonal     money.Money
	Tier         money.Money
	Promotional  money.Money
	FirstTime    money.Money
	LoyaltyScore int
	Subtotal     money.Money // sum of components before the cap
	Total        money.Money // final discount after the stacking cap
	CapApplied   bool
	Warnings     []string
}

// Engine computes stacked customer discounts. It is a pure function of its
// inputs, the frozen config, and the injected clock, so a single value can
// serve any number of goroutines.
type Engine struct {
	Cfg    Config
	Now    func() time.Time
	Logger zerolog.Logger
}

// Calculate returns the total discount for the order value after stacking.
func (e *Engine) Calculate(c customer.Snapshot, orderValue money.Money, promos []promo.Rule) (money.Money, error) {
	b, err := e.Breakdown(c, orderValue, promos)
	if err != nil {
		return money.Money{}, err
	}
	return b.Total, nil
}

// Breakdown computes all six discount components and applies the stacking
// cap. Malformed or inapplicable promotions are skipped and reported as
// warnings; only monetary arithmetic faults are fatal.
func (e *Engine) Breakdown(c customer.Snapshot, orderValue money.Money, promos []promo.Rule) (Breakdown, error) {
	cfg := e.Cfg
	b := Breakdown{}

	b.Volume = orderValue.Mul(tierRateFor(cfg.VolumeTiers, orderValue.Amount))

	b.LoyaltyScore = LoyaltyScore(c)
	b.Loyalty = orderValue.Mul(bandRateFor(cfg.LoyaltyBands, b.LoyaltyScore))

	month := e.now().Month()
	b.Seasonal = orderValue.Mul(cfg.SeasonalRates[month])

	b.Tier = orderValue.Mul(cfg.TierRates[c.Tier])

	promoTotal, warnings := e.promotional(c, orderValue, promos)
	b.Promotional = promoTotal
	b.Warnings = warnings

	if c.TotalOrders == 0 {
		b.FirstTime = orderValue.Mul(cfg.FirstTimeRate)
	} else {
		b.FirstTime = money.Zero(orderValue.Currency)
	}

	subtotal := money.Zero(orderValue.Currency)
	for _, part := range []money.Money{b.Volume, b.Loyalty, b.Seasonal, b.Tier, b.Promotional, b.FirstTime} {
		sum, err := subtotal.Add(part)
		if err != nil {
			return Breakdown{}, fmt.Errorf("stack discounts: %w", err)
		}
		subtotal = sum
	}
	b.Subtotal = subtotal

	cap := orderValue.Mul(cfg.StackingCap)
	if subtotal.Amount > cap.Amount {
		b.Total = cap
		b.CapApplied = true
	} else {
		b.Total = subtotal
	}
	return b, nil
}

// LoyaltyScore derives a 0-100 engagement score from the customer's history.
// The trailing +5 is a flat recent-activity bonus carried over from the
// previous billing system for behavioural parity.
func LoyaltyScore(c customer.Snapshot) int {
	spentMillions := int(c.TotalSpent.Amount / money.MinorUnitsPerMillion)
	score := min(c.TotalOrders*4, 40) +
		min(spentMillions*2, 30) +
		min(c.AgeMonths*2, 20) +
		5
	return min(score, 100)
}

func (e *Engine) promotional(c customer.Snapshot, orderValue money.Money, promos []promo.Rule) (money.Money, []string) {
	total := money.Zero(orderValue.Currency)
	var warnings []string

	skip := func(rule promo.Rule, reason string) {
		e.Logger.Warn().Str("promotion_id", rule.ID).Str("reason", reason).Msg("skipping promotion")
		warnings = append(warnings, fmt.Sprintf("promotion %q skipped: %s", rule.ID, reason))
	}

	for _, rule := range promos {
		if problems := rule.Problems(); len(problems) > 0 {
			skip(rule, strings.Join(problems, "; "))
			continue
		}
		eligible, err := rule.EligibleFor(c)
		if err != nil {
			skip(rule, err.Error())
			continue
		}
		if !eligible {
			continue
		}

		var contribution money.Money
		switch rule.Type {
		case promo.TypePercentage:
			contribution = orderValue.Mul(rule.Percent)
		case promo.TypeFixed:
			if rule.Amount.Currency != orderValue.Currency {
				skip(rule, fmt.Sprintf("currency %q does not match order currency %q", rule.Amount.Currency, orderValue.Currency))
				continue
			}
			contribution = rule.Amount
		}

		sum, err := total.Add(contribution)
		if err != nil {
			skip(rule, err.Error())
			continue
		}
		total = sum
	}
	return total, warnings
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func tierRateFor(tiers []VolumeTier, amount int64) decimal.Decimal {
	for _, t := range tiers {
		if amount >= t.MinAmount {
			return t.Rate
		}
	}
	return decimal.Zero
}

func bandRateFor(bands []RateBand, score int) decimal.Decimal {
	for _, b := range bands {
		if score >= b.MinScore {
			return b.Rate
		}
	}
	return decimal.Zero
}
