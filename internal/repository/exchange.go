package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

const exchangeColumns = `id, reference, exchange_type, currency, foreign_amount, exchange_rate,
	jod_amount, profit, customer_national_id, customer_name, customer_phone,
	cashier_id, country, notes, created_at`

type ExchangeRepository struct {
	db *sql.DB
}

func NewExchangeRepository(db *sql.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CurrencyExchange, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+exchangeColumns+` FROM currency_exchanges WHERE id = $1`, id,
	)
	e, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (r *ExchangeRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.CurrencyExchange) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO currency_exchanges (
			id, reference, exchange_type, currency, foreign_amount, exchange_rate,
			jod_amount, profit, customer_national_id, customer_name, customer_phone,
			cashier_id, country, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.Reference, e.Type, e.Currency, e.ForeignAmount, e.ExchangeRate,
		e.JodAmount, e.Profit, e.CustomerNationalID, e.CustomerName, e.CustomerPhone,
		e.CashierID, e.Country, e.Notes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM currency_exchanges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ExchangeFilter narrows the exchange listing. Zero values mean "no filter".
type ExchangeFilter struct {
	Query    string
	Currency string
	Type     domain.ExchangeType
	From     *time.Time
	To       *time.Time
	Limit    int
}

func (r *ExchangeRepository) Search(ctx context.Context, f ExchangeFilter) ([]domain.CurrencyExchange, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf(
			`(reference LIKE %[1]s OR customer_name ILIKE %[1]s OR customer_national_id LIKE %[1]s)`, p))
	}
	if f.Currency != "" {
		conds = append(conds, "currency = "+arg(strings.ToUpper(f.Currency)))
	}
	if f.Type != "" {
		conds = append(conds, "exchange_type = "+arg(f.Type))
	}
	if f.From != nil {
		conds = append(conds, "created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "created_at < "+arg(f.To.AddDate(0, 0, 1)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(
		`SELECT `+exchangeColumns+` FROM currency_exchanges
		%s ORDER BY created_at DESC LIMIT %s`, where, arg(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.CurrencyExchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: scan: %w", err)
		}
		exchanges = append(exchanges, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: rows: %w", err)
	}
	return exchanges, nil
}

// CurrencyStat aggregates one currency's buy and sell sides for reporting.
type CurrencyStat struct {
	Currency    string
	BuyCount    int
	BuyForeign  decimal.Decimal
	BuyJod      decimal.Decimal
	SellCount   int
	SellForeign decimal.Decimal
	SellJod     decimal.Decimal
	Profit      decimal.Decimal
}

func (r *ExchangeRepository) Statistics(ctx context.Context, from, to *time.Time) ([]CurrencyStat, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if from != nil {
		conds = append(conds, "created_at >= "+arg(*from))
	}
	if to != nil {
		conds = append(conds, "created_at < "+arg(to.AddDate(0, 0, 1)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(
		`SELECT currency,
			COUNT(*) FILTER (WHERE exchange_type = 'buy'),
			COALESCE(SUM(foreign_amount) FILTER (WHERE exchange_type = 'buy'), 0),
			COALESCE(SUM(jod_amount) FILTER (WHERE exchange_type = 'buy'), 0),
			COUNT(*) FILTER (WHERE exchange_type = 'sell'),
			COALESCE(SUM(foreign_amount) FILTER (WHERE exchange_type = 'sell'), 0),
			COALESCE(SUM(jod_amount) FILTER (WHERE exchange_type = 'sell'), 0),
			COALESCE(SUM(profit), 0)
		FROM currency_exchanges
		%s
		GROUP BY currency
		ORDER BY currency`, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Statistics: %w", err)
	}
	defer rows.Close()

	var stats []CurrencyStat
	for rows.Next() {
		var s CurrencyStat
		if err := rows.Scan(
			&s.Currency,
			&s.BuyCount, &s.BuyForeign, &s.BuyJod,
			&s.SellCount, &s.SellForeign, &s.SellJod,
			&s.Profit,
		); err != nil {
			return nil, fmt.Errorf("Statistics: scan: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Statistics: rows: %w", err)
	}
	return stats, nil
}

func scanExchange(s scanner) (*domain.CurrencyExchange, error) {
	var e domain.CurrencyExchange
	err := s.Scan(
		&e.ID, &e.Reference, &e.Type, &e.Currency, &e.ForeignAmount, &e.ExchangeRate,
		&e.JodAmount, &e.Profit, &e.CustomerNationalID, &e.CustomerName, &e.CustomerPhone,
		&e.CashierID, &e.Country, &e.Notes, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
