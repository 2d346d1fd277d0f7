package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type memStore struct {
	balances map[uuid.UUID]decimal.Decimal
	updated  map[uuid.UUID]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[uuid.UUID]decimal.Decimal),
		updated:  make(map[uuid.UUID]time.Time),
	}
}

func (m *memStore) GetForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Cashier, error) {
	b, ok := m.balances[id]
	if !ok {
		return nil, domain.ErrCashierNotFound
	}
	return &domain.Cashier{ID: id, Balance: b}, nil
}

func (m *memStore) UpdateBalance(_ context.Context, _ *sql.Tx, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	m.balances[id] = balance
	m.updated[id] = at
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDebitSend(t *testing.T) {
	store := newMemStore()
	cashier := uuid.New()
	store.balances[cashier] = dec("1000")

	l := New(store)
	require.NoError(t, l.DebitSend(context.Background(), nil, cashier, dec("200"), dec("7")))

	assert.True(t, store.balances[cashier].Equal(dec("793")))
	assert.False(t, store.updated[cashier].IsZero())
}

func TestDebitSendAllowsOverdraft(t *testing.T) {
	store := newMemStore()
	cashier := uuid.New()
	store.balances[cashier] = dec("50")

	l := New(store)
	require.NoError(t, l.DebitSend(context.Background(), nil, cashier, dec("200"), dec("7")))
	assert.True(t, store.balances[cashier].Equal(dec("-157")))
}

func TestPayOut(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		amount  string
		want    string
		wantErr error
	}{
		{"sufficient balance", "500", "200", "300", nil},
		{"exact balance", "200", "200", "0", nil},
		{"insufficient balance rejected", "100", "150", "100", domain.ErrInsufficientBalance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			cashier := uuid.New()
			store.balances[cashier] = dec(tc.balance)

			l := New(store)
			err := l.PayOut(context.Background(), nil, cashier, dec(tc.amount))

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, store.balances[cashier].Equal(dec(tc.want)),
				"balance: got %s, want %s", store.balances[cashier], tc.want)
		})
	}
}

// Full create -> pay -> revert cycle: the receiver round-trips to its
// starting balance while the sender is debited amount+fee a second time.
func TestRevertPaidReappliesSendDebit(t *testing.T) {
	store := newMemStore()
	sender := uuid.New()
	receiver := uuid.New()
	store.balances[sender] = dec("1000")
	store.balances[receiver] = dec("500")

	l := New(store)
	ctx := context.Background()
	amount, fee := dec("200"), dec("7")

	require.NoError(t, l.DebitSend(ctx, nil, sender, amount, fee))
	assert.True(t, store.balances[sender].Equal(dec("793")))

	require.NoError(t, l.PayOut(ctx, nil, receiver, amount))
	assert.True(t, store.balances[receiver].Equal(dec("300")))

	require.NoError(t, l.RevertPaid(ctx, nil, &receiver, &sender, amount, fee))
	assert.True(t, store.balances[receiver].Equal(dec("500")))
	assert.True(t, store.balances[sender].Equal(dec("586")))
}

func TestRevertPaidWithMissingCashiers(t *testing.T) {
	store := newMemStore()
	sender := uuid.New()
	store.balances[sender] = dec("100")

	l := New(store)
	require.NoError(t, l.RevertPaid(context.Background(), nil, nil, &sender, dec("50"), dec("5")))
	assert.True(t, store.balances[sender].Equal(dec("45")))
}

func TestRevertPaidSameCashierBothSides(t *testing.T) {
	store := newMemStore()
	cashier := uuid.New()
	store.balances[cashier] = dec("300")

	l := New(store)
	require.NoError(t, l.RevertPaid(context.Background(), nil, &cashier, &cashier, dec("200"), dec("7")))
	// +200 then -207 nets to -7.
	assert.True(t, store.balances[cashier].Equal(dec("293")))
}

func TestExchangeRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		typ        domain.ExchangeType
		afterApply string
	}{
		{"buy debits the till", domain.ExchangeBuy, "929"},
		{"sell credits the till", domain.ExchangeSell, "1071"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			cashier := uuid.New()
			store.balances[cashier] = dec("1000")

			l := New(store)
			ctx := context.Background()
			jod := dec("71") // 100 foreign at 0.71

			require.NoError(t, l.ApplyExchange(ctx, nil, cashier, tc.typ, jod))
			assert.True(t, store.balances[cashier].Equal(dec(tc.afterApply)),
				"after apply: got %s, want %s", store.balances[cashier], tc.afterApply)

			require.NoError(t, l.RevertExchange(ctx, nil, cashier, tc.typ, jod))
			assert.True(t, store.balances[cashier].Equal(dec("1000")))
		})
	}
}
