package tax

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

func newEngine() *Engine {
	return &Engine{Cfg: DefaultConfig()}
}

func domestic() customer.Snapshot {
	return customer.Snapshot{Tier: customer.TierStandard, Country: "ID"}
}

func TestVATStandardRateExact(t *testing.T) {
	e := newEngine()
	taxable := money.New(1_000_000, "IDR")

	s, err := e.Assess(taxable, domestic())
	if err != nil {
		t.Fatal(err)
	}
	if s.VAT.Amount != 110_000 { // exactly 11%
		t.Fatalf("expected VAT 110000, got %d", s.VAT.Amount)
	}
	if !s.Total.Equal(s.VAT) {
		t.Fatalf("expected only VAT active, total %d", s.Total.Amount)
	}
	if s.SanityViolation {
		t.Fatal("unexpected sanity violation")
	}
}

func TestVATExemptions(t *testing.T) {
	e := newEngine()
	taxable := money.New(987_654_321, "IDR")

	cases := []struct {
		name   string
		c      customer.Snapshot
		reason string
	}{
		{"export", customer.Snapshot{ExportCustomer: true, Country: "US"}, "export customer"},
		{"free trade zone", customer.Snapshot{FreeTradeZone: true, Country: "ID"}, "free trade zone"},
		{"ppn exemption", customer.Snapshot{Country: "ID", SpecialExemptions: []string{"ppn"}}, "special exemption PPN"},
	}
	for _, tc := range cases {
		s, err := e.Assess(taxable, tc.c)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !s.VAT.IsZero() {
			t.Fatalf("%s: expected zero VAT, got %d", tc.name, s.VAT.Amount)
		}
		if len(s.Exemptions) != 1 || s.Exemptions[0].Reason != tc.reason {
			t.Fatalf("%s: unexpected exemptions %v", tc.name, s.Exemptions)
		}
	}
}

func TestGovernmentStillPaysVAT(t *testing.T) {
	e := newEngine()
	c := domestic()
	c.Government = true

	s, err := e.Assess(money.New(1_000_000, "IDR"), c)
	if err != nil {
		t.Fatal(err)
	}
	if s.VAT.Amount != 110_000 {
		t.Fatalf("government customers pay the standard VAT rate, got %d", s.VAT.Amount)
	}
}

func TestWithholding(t *testing.T) {
	e := newEngine()
	taxable := money.New(10_000_000, "IDR")
	floor := 50 * money.MinorUnitsPerMillion

	corporateGoods := customer.Snapshot{Corporate: true, Country: "ID", TotalSpent: money.New(floor+1, "IDR")}
	s, err := e.Assess(taxable, corporateGoods)
	if err != nil {
		t.Fatal(err)
	}
	if s.Withholding.Amount != 150_000 { // 1.5% goods
		t.Fatalf("expected goods withholding 150000, got %d", s.Withholding.Amount)
	}

	corporateServices := corporateGoods
	corporateServices.ServiceTransactions = true
	s, err = e.Assess(taxable, corporateServices)
	if err != nil {
		t.Fatal(err)
	}
	if s.Withholding.Amount != 200_000 { // 2% services
		t.Fatalf("expected services withholding 200000, got %d", s.Withholding.Amount)
	}

	// Spend exactly at the floor does not qualify; the threshold is strict.
	atFloor := corporateGoods
	atFloor.TotalSpent = money.New(floor, "IDR")
	s, err = e.Assess(taxable, atFloor)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Withholding.IsZero() {
		t.Fatalf("expected no withholding at the floor, got %d", s.Withholding.Amount)
	}

	nonCorporate := customer.Snapshot{Country: "ID", TotalSpent: money.New(floor*2, "IDR")}
	s, err = e.Assess(taxable, nonCorporate)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Withholding.IsZero() {
		t.Fatalf("expected no withholding for non-corporate, got %d", s.Withholding.Amount)
	}
}

func TestRegionalRates(t *testing.T) {
	e := newEngine()
	taxable := money.New(100_000_000, "IDR")

	cases := []struct {
		region string
		want   int64
	}{
		{"Jakarta", 100_000}, // 0.1%, case-insensitive
		{"surabaya", 50_000}, // 0.05%
		{"bandung", 0},
		{"", 0},
	}
	for _, tc := range cases {
		c := domestic()
		c.Region = tc.region
		s, err := e.Assess(taxable, c)
		if err != nil {
			t.Fatalf("region %q: %v", tc.region, err)
		}
		if s.Regional.Amount != tc.want {
			t.Fatalf("region %q: expected %d, got %d", tc.region, tc.want, s.Regional.Amount)
		}
	}
}

func TestTradeTax(t *testing.T) {
	e := newEngine()
	taxable := money.New(100_000_000, "IDR")

	cases := []struct {
		name string
		c    customer.Snapshot
		want int64
	}{
		{"domestic", domestic(), 0},
		{"empty country", customer.Snapshot{}, 0},
		{"asean partner", customer.Snapshot{Country: "SG"}, 0},
		{"listed country", customer.Snapshot{Country: "us"}, 500_000},           // 0.5%
		{"unknown country default", customer.Snapshot{Country: "BR"}, 1_000_000}, // 1%
		{"export from home country", customer.Snapshot{Country: "ID", ExportCustomer: true}, 1_000_000},
	}
	for _, tc := range cases {
		s, err := e.Assess(taxable, tc.c)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if s.Trade.Amount != tc.want {
			t.Fatalf("%s: expected trade tax %d, got %d", tc.name, tc.want, s.Trade.Amount)
		}
	}
}

func TestComponentsAreAdditiveAndNonNegative(t *testing.T) {
	e := newEngine()
	taxable := money.New(200_000_000, "IDR")
	c := customer.Snapshot{
		Corporate:           true,
		ServiceTransactions: true,
		TotalSpent:          money.New(60*money.MinorUnitsPerMillion, "IDR"),
		Region:              "jakarta",
		Country:             "US",
	}

	s, err := e.Assess(taxable, c)
	if err != nil {
		t.Fatal(err)
	}
	for name, part := range map[string]money.Money{"vat": s.VAT, "withholding": s.Withholding, "regional": s.Regional, "trade": s.Trade} {
		if part.IsNegative() {
			t.Fatalf("%s component negative: %d", name, part.Amount)
		}
	}
	want := s.VAT.Amount + s.Withholding.Amount + s.Regional.Amount + s.Trade.Amount
	if s.Total.Amount != want {
		t.Fatalf("expected additive total %d, got %d", want, s.Total.Amount)
	}
}

func TestSanityViolationIsFlaggedNotFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VATRate = decimal.RequireFromString("0.40") // misconfigured table
	e := &Engine{Cfg: cfg}

	s, err := e.Assess(money.New(1_000_000, "IDR"), domestic())
	if err != nil {
		t.Fatalf("sanity violation must not abort: %v", err)
	}
	if !s.SanityViolation {
		t.Fatal("expected sanity violation flag")
	}
	if len(s.Warnings) == 0 {
		t.Fatal("expected a warning attached to the structure")
	}
	if e.ValidateTotal(s.TaxableAmount, s.Total) {
		t.Fatal("ValidateTotal should report the violation")
	}
}

func TestIdempotence(t *testing.T) {
	e := newEngine()
	taxable := money.New(123_456_789, "IDR")
	c := customer.Snapshot{Corporate: true, TotalSpent: money.New(60*money.MinorUnitsPerMillion, "IDR"), Region: "jakarta", Country: "JP"}

	first, err := e.Assess(taxable, c)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Assess(taxable, c)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Total.Equal(second.Total) || first.SanityViolation != second.SanityViolation {
		t.Fatalf("expected identical assessments, got %v then %v", first.Total, second.Total)
	}
}
