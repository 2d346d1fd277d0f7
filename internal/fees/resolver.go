// Package fees resolves the commission owed on a remittance from per-country
// banded tiers, falling back to flat bands when a country has none.
package fees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/country"
	"github.com/alawneh/eway-backoffice/internal/domain"
)

type tierSource interface {
	ListByCountry(ctx context.Context, country string) ([]domain.FeeTier, error)
}

// FlatBands is the legacy banding rule applied when no tier matches:
// amount <= Band1Max -> Band1Fee; <= Band2Max -> Band2Fee; else TopFee.
type FlatBands struct {
	Band1Max decimal.Decimal
	Band1Fee decimal.Decimal
	Band2Max decimal.Decimal
	Band2Fee decimal.Decimal
	TopFee   decimal.Decimal
}

func DefaultFlatBands() FlatBands {
	return FlatBands{
		Band1Max: decimal.NewFromInt(500),
		Band1Fee: decimal.NewFromInt(5),
		Band2Max: decimal.NewFromInt(1000),
		Band2Fee: decimal.NewFromInt(7),
		TopFee:   decimal.NewFromInt(10),
	}
}

type Resolver struct {
	tiers tierSource
	flat  FlatBands
}

func NewResolver(tiers tierSource, flat FlatBands) *Resolver {
	return &Resolver{tiers: tiers, flat: flat}
}

// Resolve returns the fee for sending amount to the given country. Read-only
// and deterministic against an unchanged tier set.
func (r *Resolver) Resolve(ctx context.Context, rawCountry string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("Resolve: %w", domain.ErrInvalidAmount)
	}
	canonical := country.Normalize(rawCountry)
	if canonical == "" {
		return decimal.Zero, fmt.Errorf("Resolve: %w", domain.ErrInvalidCountry)
	}

	tiers, err := r.tiers.ListByCountry(ctx, canonical)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Resolve: %w", err)
	}
	if len(tiers) == 0 {
		return r.flatFee(amount), nil
	}

	// Tiers arrive ordered by MinAmount ascending; first match wins.
	for _, t := range tiers {
		if amount.LessThan(t.MinAmount) {
			continue
		}
		if t.MaxAmount == nil || amount.LessThanOrEqual(*t.MaxAmount) {
			return t.Fee, nil
		}
	}

	// No band matched strictly; the last open-ended tier acts as a catch-all.
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].MaxAmount == nil {
			return tiers[i].Fee, nil
		}
	}

	return r.flatFee(amount), nil
}

func (r *Resolver) flatFee(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.LessThanOrEqual(r.flat.Band1Max):
		return r.flat.Band1Fee
	case amount.LessThanOrEqual(r.flat.Band2Max):
		return r.flat.Band2Fee
	default:
		return r.flat.TopFee
	}
}

// ValidateTier is the admission check for inserting or editing a tier:
// the range must be well-formed and must not overlap any sibling tier
// for the same country. The candidate's country must be pre-normalized
// and siblings must exclude the tier being edited.
func ValidateTier(candidate domain.FeeTier, siblings []domain.FeeTier) error {
	if !candidate.ValidRange() {
		return fmt.Errorf("ValidateTier: %w", domain.ErrInvalidTierRange)
	}
	for _, s := range siblings {
		if candidate.Overlaps(s) {
			return fmt.Errorf("ValidateTier: %w", domain.ErrTierOverlap)
		}
	}
	return nil
}
