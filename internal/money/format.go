package money

import (
	"fmt"
	"strings"
)

// Formatter renders a monetary value for humans. Locale concerns live behind
// this interface so the engine never needs to know about them.
type Formatter interface {
	Format(Money) string
}

// Display is the serializable representation of one breakdown entry.
type Display struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// Describe builds a Display for the given amount. A nil formatter falls back
// to the rupiah formatter.
func Describe(m Money, f Formatter) Display {
	if f == nil {
		f = IDRFormatter{}
	}
	return Display{Amount: m.Amount, Currency: m.Currency, Formatted: f.Format(m)}
}

// IDRFormatter renders amounts the Indonesian way: dot-grouped units with a
// comma before the two minor digits, e.g. "Rp 1.234.567,89".
type IDRFormatter struct{}

// Format implements Formatter.
func (IDRFormatter) Format(m Money) string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	units := amount / 100
	cents := amount % 100
	return fmt.Sprintf("%sRp %s,%02d", sign, groupThousands(units), cents)
}

func groupThousands(v int64) string {
	digits := fmt.Sprintf("%d", v)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
