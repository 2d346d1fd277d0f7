// Package ledger applies the signed balance adjustments a remittance or
// currency exchange causes on a cashier's till. Every method operates on
// rows locked inside the caller's transaction so the status write and the
// balance write commit or roll back together.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type cashierStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Cashier, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal, at time.Time) error
}

type Ledger struct {
	cashiers cashierStore
}

func New(cashiers cashierStore) *Ledger {
	return &Ledger{cashiers: cashiers}
}

// DebitSend removes Amount+Fee from the sending cashier's till when a
// remittance is created. The till may go negative; overdraft is not blocked
// on the sending side.
func (l *Ledger) DebitSend(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, amount, fee decimal.Decimal) error {
	c, err := l.cashiers.GetForUpdate(ctx, tx, cashierID)
	if err != nil {
		return fmt.Errorf("DebitSend: %w", err)
	}
	newBalance := c.Balance.Sub(amount.Add(fee))
	if err := l.cashiers.UpdateBalance(ctx, tx, cashierID, newBalance, time.Now().UTC()); err != nil {
		return fmt.Errorf("DebitSend: %w", err)
	}
	return nil
}

// PayOut removes Amount from the receiving cashier's till when a remittance
// is delivered. Unlike the sending side, a payout with insufficient balance
// is rejected outright.
func (l *Ledger) PayOut(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, amount decimal.Decimal) error {
	c, err := l.cashiers.GetForUpdate(ctx, tx, cashierID)
	if err != nil {
		return fmt.Errorf("PayOut: %w", err)
	}
	if c.Balance.LessThan(amount) {
		return fmt.Errorf("PayOut: have %s, need %s: %w", c.Balance, amount, domain.ErrInsufficientBalance)
	}
	if err := l.cashiers.UpdateBalance(ctx, tx, cashierID, c.Balance.Sub(amount), time.Now().UTC()); err != nil {
		return fmt.Errorf("PayOut: %w", err)
	}
	return nil
}

// RevertPaid undoes a delivered remittance: the receiving till gets Amount
// back, and the sending till is debited Amount+Fee again, mirroring the
// creation-time debit.
//
// TODO: confirm with the product owner whether the send side should instead
// be credited back; re-debiting shrinks the sender's till on every
// pay/revert cycle.
func (l *Ledger) RevertPaid(ctx context.Context, tx *sql.Tx, receiverID, senderID *uuid.UUID, amount, fee decimal.Decimal) error {
	locked, err := l.lockInOrder(ctx, tx, receiverID, senderID)
	if err != nil {
		return fmt.Errorf("RevertPaid: %w", err)
	}

	now := time.Now().UTC()
	if receiverID != nil {
		recv := locked[*receiverID]
		if err := l.cashiers.UpdateBalance(ctx, tx, recv.ID, recv.Balance.Add(amount), now); err != nil {
			return fmt.Errorf("RevertPaid: credit receiver: %w", err)
		}
	}
	if senderID != nil {
		send := locked[*senderID]
		balance := send.Balance
		if receiverID != nil && *receiverID == *senderID {
			balance = balance.Add(amount)
		}
		if err := l.cashiers.UpdateBalance(ctx, tx, send.ID, balance.Sub(amount.Add(fee)), now); err != nil {
			return fmt.Errorf("RevertPaid: debit sender: %w", err)
		}
	}
	return nil
}

// ApplyExchange adjusts the till for a currency exchange: a buy pays dinars
// out of the till, a sell takes dinars in.
func (l *Ledger) ApplyExchange(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, typ domain.ExchangeType, jodAmount decimal.Decimal) error {
	return l.applyExchange(ctx, tx, cashierID, typ, jodAmount, false)
}

// RevertExchange applies the exact inverse of the original adjustment when
// an exchange is deleted.
func (l *Ledger) RevertExchange(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, typ domain.ExchangeType, jodAmount decimal.Decimal) error {
	return l.applyExchange(ctx, tx, cashierID, typ, jodAmount, true)
}

func (l *Ledger) applyExchange(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, typ domain.ExchangeType, jodAmount decimal.Decimal, invert bool) error {
	c, err := l.cashiers.GetForUpdate(ctx, tx, cashierID)
	if err != nil {
		return fmt.Errorf("applyExchange: %w", err)
	}

	delta := jodAmount
	if typ == domain.ExchangeBuy {
		delta = delta.Neg()
	}
	if invert {
		delta = delta.Neg()
	}

	if err := l.cashiers.UpdateBalance(ctx, tx, cashierID, c.Balance.Add(delta), time.Now().UTC()); err != nil {
		return fmt.Errorf("applyExchange: %w", err)
	}
	return nil
}

// lockInOrder takes row locks on the given cashiers in a deterministic
// order so two concurrent reversals touching the same pair cannot deadlock.
func (l *Ledger) lockInOrder(ctx context.Context, tx *sql.Tx, ids ...*uuid.UUID) (map[uuid.UUID]*domain.Cashier, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Cashier, len(unique))
	for _, id := range unique {
		c, err := l.cashiers.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockInOrder: %w", err)
		}
		locked[id] = c
	}
	return locked, nil
}
