package markup

import (
	"testing"

	"github.com/noah-isme/pricing-engine/internal/complexity"
	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

func TestTierRates(t *testing.T) {
	base := money.New(1_000_000, "IDR")
	cx := complexity.Snapshot{Level: complexity.LevelMedium, Score: 5}

	cases := []struct {
		tier customer.Tier
		want int64
	}{
		{customer.TierStandard, 300_000},
		{customer.TierPremium, 250_000},
		{customer.TierCorporate, 200_000},
		{customer.TierVIP, 150_000},
		{customer.Tier("unknown"), 300_000}, // falls back to standard
	}
	for _, tc := range cases {
		s := ForCustomer(customer.Snapshot{Tier: tc.tier})
		got := s.CalculateMarkup(base, cx)
		if got.Amount != tc.want {
			t.Fatalf("tier %s: expected markup %d, got %d", tc.tier, tc.want, got.Amount)
		}
		if got.Currency != base.Currency {
			t.Fatalf("tier %s: currency lost: %q", tc.tier, got.Currency)
		}
	}
}

func TestCustomLevelUplift(t *testing.T) {
	base := money.New(1_000_000, "IDR")
	cx := complexity.Snapshot{Level: complexity.LevelCustom, Score: 9}

	got := VIP{}.CalculateMarkup(base, cx)
	if got.Amount != 170_000 { // 15% + 2pp uplift
		t.Fatalf("expected 170000, got %d", got.Amount)
	}
}

func TestMarkupNeverNegative(t *testing.T) {
	base := money.New(-1_000, "IDR")
	got := Standard{}.CalculateMarkup(base, complexity.Snapshot{Level: complexity.LevelSimple, Score: 1})
	if got.IsNegative() {
		t.Fatalf("markup must be non-negative, got %d", got.Amount)
	}
}
