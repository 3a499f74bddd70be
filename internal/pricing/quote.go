package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/money"
)

// VendorQuote is the read-only vendor cost snapshot a calculation starts
// from. The engine never mutates it.
type VendorQuote struct {
	TotalPrice money.Money
}

// materialRatio is the fixed share of vendor cost attributed to materials.
var materialRatio = decimal.RequireFromString("0.65")

// Decomposition splits vendor cost into informational components. Neither
// share feeds the adjusted cost or the final price.
type Decomposition struct {
	Material money.Money
	Labor    money.Money
}

// DecomposeCost splits the vendor quote into material and labor shares using
// the labor ratio resolved from the order's complexity level.
func DecomposeCost(quote VendorQuote, laborRatio decimal.Decimal) Decomposition {
	return Decomposition{
		Material: quote.TotalPrice.Mul(materialRatio),
		Labor:    quote.TotalPrice.Mul(laborRatio),
	}
}
