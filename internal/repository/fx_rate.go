package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

const fxRateColumns = `id, currency, buy_rate, sell_rate, notes, cashier_id, created_at, last_modified_at`

type FxRateRepository struct {
	db *sql.DB
}

func NewFxRateRepository(db *sql.DB) *FxRateRepository {
	return &FxRateRepository{db: db}
}

func (r *FxRateRepository) List(ctx context.Context) ([]domain.FxRate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fxRateColumns+` FROM fx_rates ORDER BY currency`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var rates []domain.FxRate
	for rows.Next() {
		rate, err := scanFxRate(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		rates = append(rates, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return rates, nil
}

func (r *FxRateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FxRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fxRateColumns+` FROM fx_rates WHERE id = $1`, id,
	)
	rate, err := scanFxRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rate, nil
}

func (r *FxRateRepository) GetByCurrency(ctx context.Context, currency string) (*domain.FxRate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fxRateColumns+` FROM fx_rates WHERE currency = $1`,
		strings.ToUpper(currency),
	)
	rate, err := scanFxRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByCurrency: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByCurrency: %w", err)
	}
	return rate, nil
}

func (r *FxRateRepository) Create(ctx context.Context, rate *domain.FxRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fx_rates (id, currency, buy_rate, sell_rate, notes, cashier_id, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rate.ID, rate.Currency, rate.BuyRate, rate.SellRate, rate.Notes, rate.CashierID,
		rate.CreatedAt, rate.LastModifiedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("Create: %w", domain.ErrRateExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FxRateRepository) Update(ctx context.Context, rate *domain.FxRate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fx_rates SET buy_rate = $1, sell_rate = $2, notes = $3, last_modified_at = $4
		WHERE id = $5`,
		rate.BuyRate, rate.SellRate, rate.Notes, rate.LastModifiedAt, rate.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *FxRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fx_rates WHERE id = $1`, id)
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

func scanFxRate(s scanner) (*domain.FxRate, error) {
	var rate domain.FxRate
	err := s.Scan(&rate.ID, &rate.Currency, &rate.BuyRate, &rate.SellRate, &rate.Notes, &rate.CashierID,
		&rate.CreatedAt, &rate.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
