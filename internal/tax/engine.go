package tax

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

// ExemptionPPN is the special-exemption code that waives the VAT component.
const ExemptionPPN = "PPN"

// Config holds the immutable tax rate tables. Loaded once at startup and
// shared read-only with every calculation.
type Config struct {
	VATRate                decimal.Decimal
	WithholdingServiceRate decimal.Decimal
	WithholdingGoodsRate   decimal.Decimal
	WithholdingMinSpent    int64                      // minor units of lifetime spend
	RegionalRates          map[string]decimal.Decimal // keyed by lower-cased region
	TradeRates             map[string]decimal.Decimal // keyed by upper-cased ISO country
	TradeDefaultRate       decimal.Decimal
	HomeCountry            string
	SanityCap              decimal.Decimal
}

// DefaultConfig returns the production tax tables.
func DefaultConfig() Config {
	return Config{
		VATRate:                decimal.RequireFromString("0.11"),
		WithholdingServiceRate: decimal.RequireFromString("0.02"),
		WithholdingGoodsRate:   decimal.RequireFromString("0.015"),
		WithholdingMinSpent:    50 * money.MinorUnitsPerMillion,
		RegionalRates: map[string]decimal.Decimal{
			"jakarta":  decimal.RequireFromString("0.001"),
			"surabaya": decimal.RequireFromString("0.0005"),
		},
		TradeRates: map[string]decimal.Decimal{
			"SG": decimal.Zero,
			"MY": decimal.Zero,
			"TH": decimal.Zero,
			"VN": decimal.Zero,
			"JP": decimal.RequireFromString("0.0025"),
			"US": decimal.RequireFromString("0.005"),
			"CN": decimal.RequireFromString("0.0075"),
		},
		TradeDefaultRate: decimal.RequireFromString("0.01"),
		HomeCountry:      "ID",
		SanityCap:        decimal.RequireFromString("0.25"),
	}
}

// Exemption records why a tax component was reduced to zero.
type Exemption struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

// Structure is the detailed tax assessment for one taxable amount. All four
// components are additive and uncapped.
type Structure struct {
	TaxableAmount   money.Money              `json:"taxable_amount"`
	VAT             money.Money              `json:"vat"`
	Withholding     money.Money              `json:"withholding"`
	Regional        money.Money              `json:"regional"`
	Trade           money.Money              `json:"trade"`
	Total           money.Money              `json:"total"`
	Exemptions      []Exemption              `json:"exemptions,omitempty"`
	Breakdown       map[string]money.Display `json:"breakdown"`
	SanityViolation bool                     `json:"sanity_violation"`
	Warnings        []string                 `json:"warnings,omitempty"`
}

// Engine computes the four additive tax components.
type Engine struct {
	Cfg       Config
	Formatter money.Formatter
	Logger    zerolog.Logger
}

// Calculate returns the total tax for the taxable amount.
func (e *Engine) Calculate(taxable money.Money, c customer.Snapshot) (money.Money, error) {
	s, err := e.Assess(taxable, c)
	if err != nil {
		return money.Money{}, err
	}
	return s.Total, nil
}

// Assess computes the full tax structure with exemption records and the
// sanity check. A sanity violation is surfaced on the structure rather than
// returned as an error: tax tables are business-configured data that may
// legitimately exceed the heuristic.
func (e *Engine) Assess(taxable money.Money, c customer.Snapshot) (Structure, error) {
	cfg := e.Cfg
	cur := taxable.Currency
	s := Structure{
		TaxableAmount: taxable,
		VAT:           money.Zero(cur),
		Withholding:   money.Zero(cur),
		Regional:      money.Zero(cur),
		Trade:         money.Zero(cur),
	}

	// VAT. Government buyers get no relief; only export status, free trade
	// zones, and an explicit PPN exemption waive it.
	switch {
	case c.ExportCustomer:
		s.Exemptions = append(s.Exemptions, Exemption{Component: "vat", Reason: "export customer"})
	case c.FreeTradeZone:
		s.Exemptions = append(s.Exemptions, Exemption{Component: "vat", Reason: "free trade zone"})
	case c.HasExemption(ExemptionPPN):
		s.Exemptions = append(s.Exemptions, Exemption{Component: "vat", Reason: "special exemption PPN"})
	default:
		s.VAT = taxable.Mul(cfg.VATRate)
	}

	// Withholding applies to corporate customers above the lifetime spend
	// floor; the rate depends on whether the relationship is services or
	// goods.
	if c.Corporate && c.TotalSpent.Amount > cfg.WithholdingMinSpent {
		rate := cfg.WithholdingGoodsRate
		if c.ServiceTransactions {
			rate = cfg.WithholdingServiceRate
		}
		s.Withholding = taxable.Mul(rate)
	}

	if rate, ok := cfg.RegionalRates[strings.ToLower(strings.TrimSpace(c.Region))]; ok {
		s.Regional = taxable.Mul(rate)
	}

	if e.international(c) {
		rate, ok := cfg.TradeRates[strings.ToUpper(strings.TrimSpace(c.Country))]
		if !ok {
			rate = cfg.TradeDefaultRate
		}
		s.Trade = taxable.Mul(rate)
	}

	total := money.Zero(cur)
	for _, part := range []money.Money{s.VAT, s.Withholding, s.Regional, s.Trade} {
		sum, err := total.Add(part)
		if err != nil {
			return Structure{}, err
		}
		total = sum
	}
	s.Total = total

	if !e.ValidateTotal(taxable, total) {
		s.SanityViolation = true
		s.Warnings = append(s.Warnings, "total tax exceeds 25% of the taxable amount")
		e.Logger.Warn().
			Int64("taxable", taxable.Amount).
			Int64("tax", total.Amount).
			Msg("tax sanity check failed")
	}

	s.Breakdown = map[string]money.Display{
		"taxable_amount": money.Describe(taxable, e.Formatter),
		"vat":            money.Describe(s.VAT, e.Formatter),
		"withholding":    money.Describe(s.Withholding, e.Formatter),
		"regional":       money.Describe(s.Regional, e.Formatter),
		"trade":          money.Describe(s.Trade, e.Formatter),
		"total":          money.Describe(s.Total, e.Formatter),
	}
	return s, nil
}

// ValidateTotal reports whether the calculated tax passes the sanity
// ceiling relative to the taxable amount.
func (e *Engine) ValidateTotal(taxable, tax money.Money) bool {
	cap := taxable.Mul(e.Cfg.SanityCap)
	return tax.Amount <= cap.Amount
}

// international reports whether the trade component applies. Domestic
// customers (home country, not flagged for export) pay no trade tax; an
// empty country is treated as domestic.
func (e *Engine) international(c customer.Snapshot) bool {
	if c.ExportCustomer {
		return true
	}
	country := strings.ToUpper(strings.TrimSpace(c.Country))
	return country != "" && country != strings.ToUpper(e.Cfg.HomeCountry)
}
