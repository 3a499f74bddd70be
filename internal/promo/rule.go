package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

// Type enumerates supported promotion kinds.
type Type string

const (
	// TypePercentage contributes orderValue x Percent.
	TypePercentage Type = "percentage"
	// TypeFixed contributes a flat Amount.
	TypeFixed Type = "fixed"
)

// Rule is one promotion handed to the discount engine. The catalog filters
// for validity windows; the engine re-checks eligibility per customer.
type Rule struct {
	ID           string
	Type         Type
	Percent      decimal.Decimal // used when Type == TypePercentage
	Amount       money.Money     // used when Type == TypeFixed
	RequiredTier *customer.Tier
	MinOrders    *int
	MinSpent     *money.Money
	ValidFrom    *time.Time
	ValidTo      *time.Time
}

// Problems lists what disqualifies the rule from evaluation. An empty result
// means the rule is well formed. Malformed rules are skipped with a warning,
// never failed on.
func (r Rule) Problems() []string {
	var out []string
	if strings.TrimSpace(r.ID) == "" {
		out = append(out, "missing id")
	}
	switch r.Type {
	case TypePercentage:
		if r.Percent.Sign() <= 0 {
			out = append(out, "percentage value must be positive")
		}
	case TypeFixed:
		if r.Amount.Amount <= 0 {
			out = append(out, "fixed amount must be positive")
		}
		if strings.TrimSpace(r.Amount.Currency) == "" {
			out = append(out, "fixed amount missing currency")
		}
	default:
		out = append(out, fmt.Sprintf("unknown type %q", r.Type))
	}
	return out
}

// EligibleFor reports whether the customer satisfies every constraint the
// rule carries. Constraints left unset always pass.
func (r Rule) EligibleFor(c customer.Snapshot) (bool, error) {
	if r.RequiredTier != nil && *r.RequiredTier != c.Tier {
		return false, nil
	}
	if r.MinOrders != nil && c.TotalOrders < *r.MinOrders {
		return false, nil
	}
	if r.MinSpent != nil {
		cmp, err := c.TotalSpent.Cmp(*r.MinSpent)
		if err != nil {
			return false, fmt.Errorf("min spent constraint: %w", err)
		}
		if cmp < 0 {
			return false, nil
		}
	}
	return true, nil
}

// ActiveAt reports whether the instant falls inside the validity window.
// Open-ended bounds always pass.
func (r Rule) ActiveAt(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && t.After(*r.ValidTo) {
		return false
	}
	return true
}
