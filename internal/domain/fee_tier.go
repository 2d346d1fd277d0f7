package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeTier is a per-country banded fee rule [MinAmount, MaxAmount] -> Fee.
// A nil MaxAmount means the band is open-ended.
type FeeTier struct {
	ID             uuid.UUID
	Country        string
	MinAmount      decimal.Decimal
	MaxAmount      *decimal.Decimal
	Fee            decimal.Decimal
	CreatedAt      time.Time
	LastModifiedAt *time.Time
}

// Overlaps reports whether two tiers for the same country intersect,
// treating an unset MaxAmount as +infinity. Symmetric by construction.
func (t FeeTier) Overlaps(o FeeTier) bool {
	if t.Country != o.Country {
		return false
	}
	aMax, bMax := t.MaxAmount, o.MaxAmount
	if aMax != nil && o.MinAmount.GreaterThan(*aMax) {
		return false
	}
	if bMax != nil && t.MinAmount.GreaterThan(*bMax) {
		return false
	}
	return true
}

// ValidRange rejects negative minimums and inverted bounds.
func (t FeeTier) ValidRange() bool {
	if t.MinAmount.IsNegative() {
		return false
	}
	if t.MaxAmount != nil && t.MaxAmount.LessThan(t.MinAmount) {
		return false
	}
	return true
}
