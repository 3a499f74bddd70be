package complexity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Level grades how involved an order is to fulfil.
type Level string

const (
	LevelSimple Level = "simple"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelCustom Level = "custom"
)

// ErrInvalidScore is returned for complexity scores outside the closed
// range [1,10].
var ErrInvalidScore = errors.New("complexity score out of range")

// Snapshot captures the assessed complexity of an order.
type Snapshot struct {
	Level Level
	Score int
}

// Factors are the pricing inputs derived from a complexity snapshot.
type Factors struct {
	CostMultiplier decimal.Decimal
	LaborRatio     decimal.Decimal
}

var (
	multBase    = decimal.NewFromInt(1)
	multMedium  = decimal.RequireFromString("1.10")
	multHigh    = decimal.RequireFromString("1.25")
	multExtreme = decimal.RequireFromString("1.50")

	laborRatios = map[Level]decimal.Decimal{
		LevelSimple: decimal.RequireFromString("0.20"),
		LevelMedium: decimal.RequireFromString("0.25"),
		LevelHigh:   decimal.RequireFromString("0.35"),
		LevelCustom: decimal.RequireFromString("0.40"),
	}
	// Unknown levels fall back to the medium ratio. This is a documented
	// fallback, not an error.
	defaultLaborRatio = decimal.RequireFromString("0.25")
)

// Resolve maps a complexity snapshot to its cost multiplier and labor ratio.
func Resolve(s Snapshot) (Factors, error) {
	if s.Score < 1 || s.Score > 10 {
		return Factors{}, fmt.Errorf("%w: %d", ErrInvalidScore, s.Score)
	}

	var mult decimal.Decimal
	switch {
	case s.Score <= 3:
		mult = multBase
	case s.Score <= 6:
		mult = multMedium
	case s.Score <= 8:
		mult = multHigh
	default:
		mult = multExtreme
	}

	ratio, ok := laborRatios[s.Level]
	if !ok {
		ratio = defaultLaborRatio
	}
	return Factors{CostMultiplier: mult, LaborRatio: ratio}, nil
}
