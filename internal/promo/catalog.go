package promo

import (
	"fmt"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
)

// Catalog holds the promotion rules loaded once at startup. It is immutable
// after construction, which makes it safe to share across goroutines.
type Catalog struct {
	rules []Rule
}

// NewCatalog freezes the provided rules into a catalog.
func NewCatalog(rules []Rule) *Catalog {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return &Catalog{rules: out}
}

// Rules returns a copy of every loaded rule.
func (c *Catalog) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ActiveAt returns the rules whose validity window covers the instant. This
// is the already-filtered list the discount engine consumes.
func (c *Catalog) ActiveAt(t time.Time) []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		if r.ActiveAt(t) {
			out = append(out, r)
		}
	}
	return out
}

// ruleDoc mirrors one entry of the promotions JSON document.
type ruleDoc struct {
	ID            string `koanf:"id"`
	Type          string `koanf:"type"`
	Value         string `koanf:"value"`        // decimal rate for percentage rules
	AmountMinor   int64  `koanf:"amount_minor"` // flat amount for fixed rules
	Currency      string `koanf:"currency"`
	RequiredTier  string `koanf:"required_tier"`
	MinOrders     *int   `koanf:"min_orders"`
	MinSpentMinor *int64 `koanf:"min_spent_minor"`
	ValidFrom     string `koanf:"valid_from"` // RFC3339
	ValidTo       string `koanf:"valid_to"`
}

// LoadCatalog reads the promotions document at path. An empty path yields an
// empty catalog so deployments without promotions need no file. Rules are
// loaded verbatim; malformation is reported per-calculation by the engine,
// not rejected here, because promotion data is business-configured.
func LoadCatalog(path, defaultCurrency string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return &Catalog{}, nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("load promotions: %w", err)
	}
	var docs []ruleDoc
	if err := k.Unmarshal("promotions", &docs); err != nil {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}

	rules := make([]Rule, 0, len(docs))
	for _, doc := range docs {
		rules = append(rules, doc.toRule(defaultCurrency))
	}
	return NewCatalog(rules), nil
}

func (d ruleDoc) toRule(defaultCurrency string) Rule {
	rule := Rule{
		ID:        strings.TrimSpace(d.ID),
		Type:      Type(strings.ToLower(strings.TrimSpace(d.Type))),
		MinOrders: d.MinOrders,
	}
	if v := strings.TrimSpace(d.Value); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil {
			rule.Percent = parsed
		}
	}
	currency := strings.TrimSpace(d.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	if rule.Type == TypeFixed {
		rule.Amount = money.New(d.AmountMinor, currency)
	}
	if tier := strings.TrimSpace(d.RequiredTier); tier != "" {
		parsed, _ := customer.ParseTier(tier)
		rule.RequiredTier = &parsed
	}
	if d.MinSpentMinor != nil {
		spent := money.New(*d.MinSpentMinor, currency)
		rule.MinSpent = &spent
	}
	if ts := parseTime(d.ValidFrom); ts != nil {
		rule.ValidFrom = ts
	}
	if ts := parseTime(d.ValidTo); ts != nil {
		rule.ValidTo = ts
	}
	return rule
}

func parseTime(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil
	}
	return &ts
}
