package customer

import (
	"strings"

	"github.com/noah-isme/pricing-engine/internal/money"
)

// Tier classifies customers for markup and discount purposes.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierPremium   Tier = "premium"
	TierCorporate Tier = "corporate"
	TierVIP       Tier = "vip"
)

// ParseTier normalises free-form input onto a known tier. The second return
// reports whether the input matched; unknown tiers deliberately survive as-is
// so downstream rate tables can treat them as zero-rated.
func ParseTier(value string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(value)))
	switch t {
	case TierStandard, TierPremium, TierCorporate, TierVIP:
		return t, true
	}
	return t, false
}

// Snapshot is an immutable view of a customer taken before a calculation.
// The engine never mutates it and holds no reference after the call returns.
type Snapshot struct {
	Tier                Tier
	TotalOrders         int
	TotalSpent          money.Money
	AgeMonths           int
	Region              string
	Country             string
	ExportCustomer      bool
	Government          bool
	Corporate           bool
	FreeTradeZone       bool
	ServiceTransactions bool
	SpecialExemptions   []string
}

// HasExemption reports whether the snapshot carries the named special tax
// exemption. Codes are matched case-insensitively.
func (s Snapshot) HasExemption(code string) bool {
	for _, e := range s.SpecialExemptions {
		if strings.EqualFold(strings.TrimSpace(e), code) {
			return true
		}
	}
	return false
}
