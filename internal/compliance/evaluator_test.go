package compliance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSums struct {
	sent map[uuid.UUID]decimal.Decimal
	paid map[uuid.UUID]decimal.Decimal
}

func (s *stubSums) SumSentByParty(_ context.Context, partyID uuid.UUID) (decimal.Decimal, error) {
	return s.sent[partyID], nil
}

func (s *stubSums) SumPaidToBeneficiary(_ context.Context, partyID uuid.UUID) (decimal.Decimal, error) {
	return s.paid[partyID], nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultThresholds() Thresholds {
	return Thresholds{Outgoing: dec("15000"), Incoming: dec("20000")}
}

func TestEvaluateOnSend(t *testing.T) {
	ctx := context.Background()
	party := uuid.New()

	tests := []struct {
		name      string
		priorSent string
		amount    string
		wantHold  bool
		wantTotal string
	}{
		{
			name:      "well under threshold",
			priorSent: "100",
			amount:    "50",
			wantHold:  false,
			wantTotal: "150",
		},
		{
			name:      "exactly at threshold passes",
			priorSent: "14000",
			amount:    "1000",
			wantHold:  false,
			wantTotal: "15000",
		},
		{
			name:      "one piaster over holds",
			priorSent: "14999.99",
			amount:    "0.02",
			wantHold:  true,
			wantTotal: "15000.01",
		},
		{
			name:      "single large send holds",
			priorSent: "0",
			amount:    "15000.01",
			wantHold:  true,
			wantTotal: "15000.01",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sums := &stubSums{sent: map[uuid.UUID]decimal.Decimal{party: dec(tc.priorSent)}}
			e := NewEvaluator(sums, defaultThresholds())

			v, err := e.EvaluateOnSend(ctx, party, dec(tc.amount))
			require.NoError(t, err)
			assert.Equal(t, tc.wantHold, v.Hold)
			assert.True(t, v.TotalWithCurrent.Equal(dec(tc.wantTotal)),
				"total: got %s, want %s", v.TotalWithCurrent, tc.wantTotal)
			if tc.wantHold {
				assert.NotEmpty(t, v.Reason)
			} else {
				assert.Empty(t, v.Reason)
			}
		})
	}
}

func TestEvaluateOnReceive(t *testing.T) {
	ctx := context.Background()
	party := uuid.New()

	tests := []struct {
		name      string
		priorPaid string
		amount    string
		wantHold  bool
	}{
		{"under threshold", "19000", "999", false},
		{"exactly at threshold passes", "19000", "1000", false},
		{"over threshold holds", "19000", "1000.01", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sums := &stubSums{paid: map[uuid.UUID]decimal.Decimal{party: dec(tc.priorPaid)}}
			e := NewEvaluator(sums, defaultThresholds())

			v, err := e.EvaluateOnReceive(ctx, party, dec(tc.amount))
			require.NoError(t, err)
			assert.Equal(t, tc.wantHold, v.Hold)
		})
	}
}

func TestEvaluatorUsesConfiguredThresholds(t *testing.T) {
	ctx := context.Background()
	party := uuid.New()
	sums := &stubSums{sent: map[uuid.UUID]decimal.Decimal{party: dec("90")}}

	e := NewEvaluator(sums, Thresholds{Outgoing: dec("100"), Incoming: dec("100")})
	v, err := e.EvaluateOnSend(ctx, party, dec("10.01"))
	require.NoError(t, err)
	assert.True(t, v.Hold)
}
