package pricing

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/complexity"
	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/discount"
	"github.com/noah-isme/pricing-engine/internal/markup"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/promo"
	"github.com/noah-isme/pricing-engine/internal/tax"
)

// Structure is the immutable customer-facing pricing result.
type Structure struct {
	BaseCost             money.Money              `json:"base_cost"`
	AdjustedCost         money.Money              `json:"adjusted_cost"`
	MaterialCost         money.Money              `json:"material_cost"`
	LaborCost            money.Money              `json:"labor_cost"`
	Markup               money.Money              `json:"markup"`
	Discount             money.Money              `json:"discount"`
	Tax                  money.Money              `json:"tax"`
	FinalPrice           money.Money              `json:"final_price"`
	ProfitMargin         decimal.Decimal          `json:"profit_margin"`
	ComplexityMultiplier decimal.Decimal          `json:"complexity_multiplier"`
	DiscountCapApplied   bool                     `json:"discount_cap_applied"`
	TaxSanityViolation   bool                     `json:"tax_sanity_violation"`
	Breakdown            map[string]money.Display `json:"breakdown"`
	Warnings             []string                 `json:"warnings,omitempty"`
}

// StrategyFactory selects a markup strategy for a customer.
type StrategyFactory func(customer.Snapshot) markup.Strategy

// OrchestratorConfig wires the orchestrator collaborators. Discounts and
// Taxes are required; everything else has a production default.
type OrchestratorConfig struct {
	Discounts     *discount.Engine
	Taxes         *tax.Engine
	StrategyFor   StrategyFactory
	MinMarginRate decimal.Decimal
	Formatter     money.Formatter
	Logger        zerolog.Logger
}

// Orchestrator sequences the pricing pipeline: complexity resolution,
// cost adjustment, markup, decomposition, discount, tax, margin guard. It is
// stateless between calls and safe for concurrent use.
type Orchestrator struct {
	cfg OrchestratorConfig
}

// NewOrchestrator validates the collaborators once and freezes them.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Discounts == nil || cfg.Taxes == nil {
		return nil, errors.New("pricing: discount and tax engines are required")
	}
	if cfg.StrategyFor == nil {
		cfg.StrategyFor = markup.ForCustomer
	}
	if cfg.MinMarginRate.IsZero() {
		cfg.MinMarginRate = DefaultMinMarginRate
	}
	if cfg.MinMarginRate.IsNegative() || cfg.MinMarginRate.Cmp(one) >= 0 {
		return nil, fmt.Errorf("%w: rate %s", ErrInvalidMarginConfig, cfg.MinMarginRate)
	}
	if cfg.Formatter == nil {
		cfg.Formatter = money.IDRFormatter{}
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Calculate runs the full pipeline for one quote. Fatal errors abort with no
// partial result; non-fatal promotion and tax warnings ride on the result.
func (o *Orchestrator) Calculate(quote VendorQuote, c customer.Snapshot, cx complexity.Snapshot, promos []promo.Rule) (Structure, error) {
	factors, err := complexity.Resolve(cx)
	if err != nil {
		return Structure{}, fmt.Errorf("resolve complexity: %w", err)
	}

	adjustedCost := quote.TotalPrice.Mul(factors.CostMultiplier)
	mk := o.cfg.StrategyFor(c).CalculateMarkup(adjustedCost, cx)
	decomp := DecomposeCost(quote, factors.LaborRatio)

	discounts, err := o.cfg.Discounts.Breakdown(c, adjustedCost, promos)
	if err != nil {
		return Structure{}, fmt.Errorf("calculate discount: %w", err)
	}

	taxes, err := o.cfg.Taxes.Assess(adjustedCost, c)
	if err != nil {
		return Structure{}, fmt.Errorf("calculate tax: %w", err)
	}

	finalPrice, err := EnforceMinimumMargin(adjustedCost, mk, discounts.Total, taxes.Total, o.cfg.MinMarginRate)
	if err != nil {
		return Structure{}, fmt.Errorf("enforce margin: %w", err)
	}

	warnings := make([]string, 0, len(discounts.Warnings)+len(taxes.Warnings))
	warnings = append(warnings, discounts.Warnings...)
	warnings = append(warnings, taxes.Warnings...)

	s := Structure{
		BaseCost:             quote.TotalPrice,
		AdjustedCost:         adjustedCost,
		MaterialCost:         decomp.Material,
		LaborCost:            decomp.Labor,
		Markup:               mk,
		Discount:             discounts.Total,
		Tax:                  taxes.Total,
		FinalPrice:           finalPrice,
		ProfitMargin:         profitMargin(finalPrice, quote.TotalPrice),
		ComplexityMultiplier: factors.CostMultiplier,
		DiscountCapApplied:   discounts.CapApplied,
		TaxSanityViolation:   taxes.SanityViolation,
		Warnings:             warnings,
	}
	s.Breakdown = o.describe(s)

	o.cfg.Logger.Debug().
		Int64("base_cost", s.BaseCost.Amount).
		Int64("final_price", s.FinalPrice.Amount).
		Str("profit_margin", s.ProfitMargin.String()).
		Int("warnings", len(s.Warnings)).
		Msg("quote calculated")
	return s, nil
}

// profitMargin is (final - base) / final, zero when the final price is zero.
// A zero final price is a degenerate input the caller should have rejected.
func profitMargin(finalPrice, baseCost money.Money) decimal.Decimal {
	if finalPrice.IsZero() {
		return decimal.Zero
	}
	diff := decimal.NewFromInt(finalPrice.Amount - baseCost.Amount)
	return diff.Div(decimal.NewFromInt(finalPrice.Amount)).Round(4)
}

func (o *Orchestrator) describe(s Structure) map[string]money.Display {
	f := o.cfg.Formatter
	return map[string]money.Display{
		"base_cost":     money.Describe(s.BaseCost, f),
		"adjusted_cost": money.Describe(s.AdjustedCost, f),
		"material_cost": money.Describe(s.MaterialCost, f),
		"labor_cost":    money.Describe(s.LaborCost, f),
		"markup":        money.Describe(s.Markup, f),
		"discount":      money.Describe(s.Discount, f),
		"tax":           money.Describe(s.Tax, f),
		"final_price":   money.Describe(s.FinalPrice, f),
	}
}
