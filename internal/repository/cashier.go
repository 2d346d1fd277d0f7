package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

const cashierColumns = `id, username, password_hash, name, email, department, phone_number,
	role, is_active, balance, initial_balance, last_balance_update, created_at, last_login_at`

type CashierRepository struct {
	db *sql.DB
}

func NewCashierRepository(db *sql.DB) *CashierRepository {
	return &CashierRepository{db: db}
}

func (r *CashierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cashier, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cashierColumns+` FROM cashiers WHERE id = $1`, id,
	)
	c, err := scanCashier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrCashierNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CashierRepository) GetByUsername(ctx context.Context, username string) (*domain.Cashier, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cashierColumns+` FROM cashiers WHERE username = $1`, username,
	)
	c, err := scanCashier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUsername: %w", domain.ErrCashierNotFound)
		}
		return nil, fmt.Errorf("GetByUsername: %w", err)
	}
	return c, nil
}

func (r *CashierRepository) List(ctx context.Context) ([]domain.Cashier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cashierColumns+` FROM cashiers
		ORDER BY CASE role WHEN 'Admin' THEN 0 WHEN 'User' THEN 1 ELSE 2 END, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var cashiers []domain.Cashier
	for rows.Next() {
		c, err := scanCashier(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		cashiers = append(cashiers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return cashiers, nil
}

func (r *CashierRepository) Create(ctx context.Context, c *domain.Cashier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cashiers (
			id, username, password_hash, name, email, department, phone_number,
			role, is_active, balance, initial_balance, last_balance_update, created_at, last_login_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Username, c.PasswordHash, c.Name, c.Email, c.Department, c.PhoneNumber,
		c.Role, c.IsActive, c.Balance, c.InitialBalance, c.LastBalanceUpdate, c.CreatedAt, c.LastLoginAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("Create: %w", domain.ErrUsernameTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetForUpdate takes a row lock on the cashier for the duration of tx. All
// ledger adjustments read balances through this.
func (r *CashierRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Cashier, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cashierColumns+` FROM cashiers WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCashier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrCashierNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CashierRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE cashiers SET balance = $1, last_balance_update = $2 WHERE id = $3`,
		balance, at, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrCashierNotFound)
	}
	return nil
}

// SetBalances is the admin path for add-balance and set-initial-balance.
func (r *CashierRepository) SetBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance, initial decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE cashiers SET balance = $1, initial_balance = $2, last_balance_update = $3 WHERE id = $4`,
		balance, initial, at, id,
	)
	if err != nil {
		return fmt.Errorf("SetBalances: %w", err)
	}
	return nil
}

func (r *CashierRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cashiers SET password_hash = $1 WHERE id = $2`, passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("UpdatePassword: %w", err)
	}
	return nil
}

func (r *CashierRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, department string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cashiers SET role = $1, department = $2 WHERE id = $3`, role, department, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateRole: %w", err)
	}
	return nil
}

func (r *CashierRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cashiers SET is_active = $1 WHERE id = $2`, active, id,
	)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	return nil
}

func (r *CashierRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cashiers SET last_login_at = $1 WHERE id = $2`, at, id,
	)
	if err != nil {
		return fmt.Errorf("TouchLogin: %w", err)
	}
	return nil
}

func (r *CashierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cashiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrCashierNotFound)
	}
	return nil
}

func scanCashier(s scanner) (*domain.Cashier, error) {
	var c domain.Cashier
	err := s.Scan(
		&c.ID, &c.Username, &c.PasswordHash, &c.Name, &c.Email, &c.Department, &c.PhoneNumber,
		&c.Role, &c.IsActive, &c.Balance, &c.InitialBalance, &c.LastBalanceUpdate,
		&c.CreatedAt, &c.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
