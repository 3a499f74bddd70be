package promo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

func TestProblems(t *testing.T) {
	ok := Rule{ID: "AUG-10", Type: TypePercentage, Percent: decimal.RequireFromString("0.1")}
	if problems := ok.Problems(); len(problems) != 0 {
		t.Fatalf("expected well-formed rule, got %v", problems)
	}

	cases := []Rule{
		{Type: TypePercentage, Percent: decimal.RequireFromString("0.1")}, // missing id
		{ID: "x", Type: TypePercentage},                                  // zero percent
		{ID: "x", Type: TypeFixed},                                       // zero amount
		{ID: "x", Type: Type("bogo")},                                    // unknown type
	}
	for i, r := range cases {
		if problems := r.Problems(); len(problems) == 0 {
			t.Fatalf("case %d: expected problems for %#v", i, r)
		}
	}
}

func TestEligibleForRequiresAllConstraints(t *testing.T) {
	tier := customer.TierPremium
	minOrders := 5
	minSpent := money.New(10_000_000, "IDR")
	rule := Rule{
		ID:           "LOYAL-PREM",
		Type:         TypePercentage,
		Percent:      decimal.RequireFromString("0.05"),
		RequiredTier: &tier,
		MinOrders:    &minOrders,
		MinSpent:     &minSpent,
	}

	eligible := customer.Snapshot{Tier: customer.TierPremium, TotalOrders: 6, TotalSpent: money.New(20_000_000, "IDR")}
	if ok, err := rule.EligibleFor(eligible); err != nil || !ok {
		t.Fatalf("expected eligible, got ok=%v err=%v", ok, err)
	}

	wrongTier := eligible
	wrongTier.Tier = customer.TierVIP
	if ok, _ := rule.EligibleFor(wrongTier); ok {
		t.Fatal("tier constraint ignored")
	}

	tooFewOrders := eligible
	tooFewOrders.TotalOrders = 4
	if ok, _ := rule.EligibleFor(tooFewOrders); ok {
		t.Fatal("min orders constraint ignored")
	}

	underSpent := eligible
	underSpent.TotalSpent = money.New(9_999_999, "IDR")
	if ok, _ := rule.EligibleFor(underSpent); ok {
		t.Fatal("min spent constraint ignored")
	}

	mismatched := eligible
	mismatched.TotalSpent = money.New(20_000_000, "USD")
	if _, err := rule.EligibleFor(mismatched); err == nil {
		t.Fatal("expected currency mismatch error on min spent check")
	}
}

func TestActiveAt(t *testing.T) {
	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 31, 23, 59, 59, 0, time.UTC)
	rule := Rule{ID: "AUG", Type: TypePercentage, Percent: decimal.RequireFromString("0.1"), ValidFrom: &from, ValidTo: &to}

	if !rule.ActiveAt(time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("expected active inside window")
	}
	if rule.ActiveAt(from.Add(-time.Second)) {
		t.Fatal("expected inactive before window")
	}
	if rule.ActiveAt(to.Add(time.Second)) {
		t.Fatal("expected inactive after window")
	}
	if !(Rule{ID: "open"}).ActiveAt(time.Now()) {
		t.Fatal("open-ended rule should always be active")
	}
}
