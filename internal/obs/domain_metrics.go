package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts pricing calculations by customer tier and outcome.
	QuoteTotal *prometheus.CounterVec
	// DiscountCapTotal counts calculations where the stacking cap clipped the
	// combined discount.
	DiscountCapTotal prometheus.Counter
	// TaxSanityViolationTotal counts tax assessments flagged by the sanity
	// check.
	TaxSanityViolationTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers the pricing domain
// collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of pricing calculations by tier and result.",
		}, []string{"tier", "result"})
		DiscountCapTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_cap_total",
			Help:      "Number of calculations where the discount stacking cap applied.",
		})
		TaxSanityViolationTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_sanity_violation_total",
			Help:      "Number of tax assessments exceeding the sanity ceiling.",
		})

		registerDomain(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		registerDomain(reg, DiscountCapTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DiscountCapTotal = v
			}
		})
		registerDomain(reg, TaxSanityViolationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TaxSanityViolationTotal = v
			}
		})
	})
}

// IncQuote bumps the quote counter when domain metrics are registered.
// Handlers call this unconditionally; tests run without a registry.
func IncQuote(tier, result string) {
	if QuoteTotal != nil {
		QuoteTotal.WithLabelValues(tier, result).Inc()
	}
}

// IncDiscountCap records one capped discount calculation.
func IncDiscountCap() {
	if DiscountCapTotal != nil {
		DiscountCapTotal.Inc()
	}
}

// IncTaxSanityViolation records one flagged tax assessment.
func IncTaxSanityViolation() {
	if TaxSanityViolationTotal != nil {
		TaxSanityViolationTotal.Inc()
	}
}

func registerDomain(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
