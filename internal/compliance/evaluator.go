// Package compliance enforces the anti-money-laundering thresholds on
// per-party lifetime transfer totals. The evaluator is read-only; callers
// act on its verdict inside their own transaction.
package compliance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type remittanceSums interface {
	// SumSentByParty totals the Amount of every remittance the party has
	// ever sent, regardless of status.
	SumSentByParty(ctx context.Context, partyID uuid.UUID) (decimal.Decimal, error)
	// SumPaidToBeneficiary totals the Amount of remittances already paid
	// out to the party.
	SumPaidToBeneficiary(ctx context.Context, partyID uuid.UUID) (decimal.Decimal, error)
}

// Thresholds are exclusive-above: a lifetime total exactly equal to the
// limit passes; one piaster over triggers a hold.
type Thresholds struct {
	Outgoing decimal.Decimal
	Incoming decimal.Decimal
}

type Verdict struct {
	Hold             bool
	Reason           string
	TotalWithCurrent decimal.Decimal
}

type Evaluator struct {
	sums       remittanceSums
	thresholds Thresholds
}

func NewEvaluator(sums remittanceSums, thresholds Thresholds) *Evaluator {
	return &Evaluator{sums: sums, thresholds: thresholds}
}

func (e *Evaluator) EvaluateOnSend(ctx context.Context, senderPartyID uuid.UUID, amount decimal.Decimal) (Verdict, error) {
	total, err := e.sums.SumSentByParty(ctx, senderPartyID)
	if err != nil {
		return Verdict{}, fmt.Errorf("EvaluateOnSend: %w", err)
	}
	totalWith := total.Add(amount)
	if totalWith.GreaterThan(e.thresholds.Outgoing) {
		return Verdict{
			Hold:             true,
			Reason:           fmt.Sprintf("outgoing limit %s exceeded", e.thresholds.Outgoing),
			TotalWithCurrent: totalWith,
		}, nil
	}
	return Verdict{TotalWithCurrent: totalWith}, nil
}

func (e *Evaluator) EvaluateOnReceive(ctx context.Context, beneficiaryPartyID uuid.UUID, amount decimal.Decimal) (Verdict, error) {
	totalPaid, err := e.sums.SumPaidToBeneficiary(ctx, beneficiaryPartyID)
	if err != nil {
		return Verdict{}, fmt.Errorf("EvaluateOnReceive: %w", err)
	}
	totalWith := totalPaid.Add(amount)
	if totalWith.GreaterThan(e.thresholds.Incoming) {
		return Verdict{
			Hold:             true,
			Reason:           fmt.Sprintf("incoming limit %s exceeded", e.thresholds.Incoming),
			TotalWithCurrent: totalWith,
		}, nil
	}
	return Verdict{TotalWithCurrent: totalWith}, nil
}
