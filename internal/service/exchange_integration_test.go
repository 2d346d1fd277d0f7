package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/ledger"
	"github.com/alawneh/eway-backoffice/internal/repository"
	"github.com/alawneh/eway-backoffice/internal/service"
	"github.com/alawneh/eway-backoffice/internal/testutil"
)

func setupExchangeService(t *testing.T, db *sql.DB) *service.ExchangeService {
	t.Helper()

	cashiers := repository.NewCashierRepository(db)
	exchanges := repository.NewExchangeRepository(db)
	return service.NewExchangeService(db, exchanges, cashiers, ledger.New(cashiers))
}

func TestCreateExchange_BuyPaysOutOfTill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupExchangeService(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "ex_buy", domain.RoleUser, dec("1000"))

	ex, err := svc.Create(ctx, service.CreateExchangeInput{
		CashierID:     cashier.ID,
		Type:          domain.ExchangeBuy,
		Currency:      "USD",
		ForeignAmount: dec("100"),
		ExchangeRate:  dec("0.71"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExchangeBuy, ex.Type)
	assert.True(t, ex.JodAmount.Equal(dec("71")), "jod amount %s", ex.JodAmount)
	assert.Regexp(t, `^CE-\d{8}-\d{6}-\d{3}$`, ex.Reference)

	balance := testutil.GetCashierBalance(t, db, cashier.ID)
	assert.True(t, balance.Equal(dec("929")), "balance %s", balance)
}

func TestCreateExchange_SellTakesIntoTill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupExchangeService(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "ex_sell", domain.RoleUser, dec("1000"))

	ex, err := svc.Create(ctx, service.CreateExchangeInput{
		CashierID:     cashier.ID,
		Type:          domain.ExchangeSell,
		Currency:      "EUR",
		ForeignAmount: dec("100"),
		ExchangeRate:  dec("0.72"),
	})

	require.NoError(t, err)
	assert.True(t, ex.JodAmount.Equal(dec("72")), "jod amount %s", ex.JodAmount)

	balance := testutil.GetCashierBalance(t, db, cashier.ID)
	assert.True(t, balance.Equal(dec("1072")), "balance %s", balance)
}

func TestDeleteExchange_RevertsTillAdjustment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupExchangeService(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "ex_del", domain.RoleUser, dec("1000"))

	ex, err := svc.Create(ctx, service.CreateExchangeInput{
		CashierID:     cashier.ID,
		Type:          domain.ExchangeBuy,
		Currency:      "USD",
		ForeignAmount: dec("100"),
		ExchangeRate:  dec("0.71"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ex.ID))

	balance := testutil.GetCashierBalance(t, db, cashier.ID)
	assert.True(t, balance.Equal(dec("1000")), "balance %s", balance)

	_, err = svc.Get(ctx, ex.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateExchange_RejectsInvalidInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupExchangeService(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "ex_bad", domain.RoleUser, dec("1000"))

	tests := []struct {
		name    string
		in      service.CreateExchangeInput
		wantErr error
	}{
		{
			name: "unknown type",
			in: service.CreateExchangeInput{
				CashierID:     cashier.ID,
				Type:          "swap",
				Currency:      "USD",
				ForeignAmount: dec("100"),
				ExchangeRate:  dec("0.71"),
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "zero amount",
			in: service.CreateExchangeInput{
				CashierID:     cashier.ID,
				Type:          domain.ExchangeBuy,
				Currency:      "USD",
				ForeignAmount: dec("0"),
				ExchangeRate:  dec("0.71"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative rate",
			in: service.CreateExchangeInput{
				CashierID:     cashier.ID,
				Type:          domain.ExchangeBuy,
				Currency:      "USD",
				ForeignAmount: dec("100"),
				ExchangeRate:  dec("-1"),
			},
			wantErr: domain.ErrInvalidRate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExchangeStatistics_GroupsByCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupExchangeService(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "ex_stats", domain.RoleUser, dec("10000"))

	_, err := svc.Create(ctx, service.CreateExchangeInput{
		CashierID:     cashier.ID,
		Type:          domain.ExchangeBuy,
		Currency:      "USD",
		ForeignAmount: dec("100"),
		ExchangeRate:  dec("0.71"),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, service.CreateExchangeInput{
		CashierID:     cashier.ID,
		Type:          domain.ExchangeSell,
		Currency:      "USD",
		ForeignAmount: dec("50"),
		ExchangeRate:  dec("0.72"),
		Profit:        dec("0.50"),
	})
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx, nil, nil)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	usd := stats[0]
	assert.Equal(t, "USD", usd.Currency)
	assert.Equal(t, 1, usd.BuyCount)
	assert.Equal(t, 1, usd.SellCount)
	assert.True(t, usd.BuyForeign.Equal(dec("100")), "buy foreign %s", usd.BuyForeign)
	assert.True(t, usd.SellForeign.Equal(dec("50")), "sell foreign %s", usd.SellForeign)
	assert.True(t, usd.Profit.Equal(dec("0.50")), "profit %s", usd.Profit)
}
