package fees

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type stubTiers struct {
	tiers map[string][]domain.FeeTier
}

func (s *stubTiers) ListByCountry(_ context.Context, country string) ([]domain.FeeTier, error) {
	return s.tiers[country], nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func tier(country, min string, max *decimal.Decimal, fee string) domain.FeeTier {
	return domain.FeeTier{Country: country, MinAmount: dec(min), MaxAmount: max, Fee: dec(fee)}
}

func jordanTiers() []domain.FeeTier {
	return []domain.FeeTier{
		tier("Jordan", "0", decPtr("500"), "5"),
		tier("Jordan", "500.01", decPtr("1000"), "7"),
		tier("Jordan", "1000.01", nil, "10"),
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		tiers   map[string][]domain.FeeTier
		country string
		amount  string
		want    string
		wantErr error
	}{
		{
			name:    "tier band 1 boundary",
			tiers:   map[string][]domain.FeeTier{"Jordan": jordanTiers()},
			country: "Jordan",
			amount:  "500",
			want:    "5",
		},
		{
			name:    "tier band 2",
			tiers:   map[string][]domain.FeeTier{"Jordan": jordanTiers()},
			country: "Jordan",
			amount:  "750",
			want:    "7",
		},
		{
			name:    "open-ended top tier",
			tiers:   map[string][]domain.FeeTier{"Jordan": jordanTiers()},
			country: "Jordan",
			amount:  "5000",
			want:    "10",
		},
		{
			name:    "arabic country name resolves same tiers",
			tiers:   map[string][]domain.FeeTier{"Jordan": jordanTiers()},
			country: "الأردن",
			amount:  "750",
			want:    "7",
		},
		{
			name:    "no tiers falls back to flat band 1",
			tiers:   map[string][]domain.FeeTier{},
			country: "Egypt",
			amount:  "500",
			want:    "5",
		},
		{
			name:    "no tiers falls back to flat band 2",
			tiers:   map[string][]domain.FeeTier{},
			country: "Egypt",
			amount:  "900",
			want:    "7",
		},
		{
			name:    "no tiers falls back to flat top band",
			tiers:   map[string][]domain.FeeTier{},
			country: "Egypt",
			amount:  "1000.01",
			want:    "10",
		},
		{
			name: "gap between bounded tiers hits open-ended fallback",
			tiers: map[string][]domain.FeeTier{"Turkey": {
				tier("Turkey", "0", decPtr("100"), "2"),
				tier("Turkey", "500", nil, "9"),
			}},
			country: "Turkey",
			amount:  "200",
			want:    "9",
		},
		{
			name: "gap with no open-ended tier uses flat bands",
			tiers: map[string][]domain.FeeTier{"Turkey": {
				tier("Turkey", "0", decPtr("100"), "2"),
			}},
			country: "Turkey",
			amount:  "700",
			want:    "7",
		},
		{
			name:    "negative amount rejected",
			tiers:   map[string][]domain.FeeTier{},
			country: "Jordan",
			amount:  "-1",
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "missing country rejected",
			tiers:   map[string][]domain.FeeTier{},
			country: "  ",
			amount:  "100",
			wantErr: domain.ErrInvalidCountry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(&stubTiers{tiers: tc.tiers}, DefaultFlatBands())
			fee, err := r.Resolve(ctx, tc.country, dec(tc.amount))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, fee.Equal(dec(tc.want)), "fee: got %s, want %s", fee, tc.want)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(&stubTiers{tiers: map[string][]domain.FeeTier{"Jordan": jordanTiers()}}, DefaultFlatBands())

	first, err := r.Resolve(ctx, "Jordan", dec("750"))
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "Jordan", dec("750"))
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestValidateTier(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.FeeTier
		siblings  []domain.FeeTier
		wantErr   error
	}{
		{
			name:      "valid adjacent tier",
			candidate: tier("Jordan", "1000.01", nil, "10"),
			siblings:  []domain.FeeTier{tier("Jordan", "0", decPtr("500"), "5"), tier("Jordan", "500.01", decPtr("1000"), "7")},
		},
		{
			name:      "negative min rejected",
			candidate: tier("Jordan", "-1", decPtr("100"), "5"),
			wantErr:   domain.ErrInvalidTierRange,
		},
		{
			name:      "max below min rejected",
			candidate: tier("Jordan", "100", decPtr("50"), "5"),
			wantErr:   domain.ErrInvalidTierRange,
		},
		{
			name:      "overlap with bounded sibling",
			candidate: tier("Jordan", "400", decPtr("600"), "6"),
			siblings:  []domain.FeeTier{tier("Jordan", "0", decPtr("500"), "5")},
			wantErr:   domain.ErrTierOverlap,
		},
		{
			name:      "open-ended sibling blocks everything above it",
			candidate: tier("Jordan", "2000", decPtr("3000"), "12"),
			siblings:  []domain.FeeTier{tier("Jordan", "1000.01", nil, "10")},
			wantErr:   domain.ErrTierOverlap,
		},
		{
			name:      "different country never overlaps",
			candidate: tier("Egypt", "0", decPtr("500"), "5"),
			siblings:  []domain.FeeTier{tier("Jordan", "0", decPtr("500"), "5")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTier(tc.candidate, tc.siblings)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOverlapIsSymmetric(t *testing.T) {
	pairs := []struct {
		a, b domain.FeeTier
	}{
		{tier("Jordan", "0", decPtr("500"), "5"), tier("Jordan", "400", decPtr("600"), "6")},
		{tier("Jordan", "0", decPtr("500"), "5"), tier("Jordan", "500.01", decPtr("1000"), "7")},
		{tier("Jordan", "1000.01", nil, "10"), tier("Jordan", "2000", decPtr("3000"), "12")},
		{tier("Jordan", "0", nil, "5"), tier("Jordan", "9999", nil, "9")},
	}
	for _, p := range pairs {
		assert.Equal(t, p.a.Overlaps(p.b), p.b.Overlaps(p.a))
	}
}
