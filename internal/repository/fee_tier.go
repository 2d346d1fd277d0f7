package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

const feeTierColumns = `id, country, min_amount, max_amount, fee, created_at, last_modified_at`

type FeeTierRepository struct {
	db *sql.DB
}

func NewFeeTierRepository(db *sql.DB) *FeeTierRepository {
	return &FeeTierRepository{db: db}
}

// ListByCountry returns tiers ordered by min_amount ascending; the resolver
// relies on this order for its first-match scan.
func (r *FeeTierRepository) ListByCountry(ctx context.Context, country string) ([]domain.FeeTier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feeTierColumns+` FROM fee_tiers
		WHERE country = $1 ORDER BY min_amount`,
		country,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCountry: %w", err)
	}
	return collectFeeTiers(rows, "ListByCountry")
}

func (r *FeeTierRepository) ListAll(ctx context.Context) ([]domain.FeeTier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feeTierColumns+` FROM fee_tiers ORDER BY country, min_amount`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	return collectFeeTiers(rows, "ListAll")
}

func (r *FeeTierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeTier, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feeTierColumns+` FROM fee_tiers WHERE id = $1`, id,
	)
	t, err := scanFeeTier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *FeeTierRepository) Create(ctx context.Context, t *domain.FeeTier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fee_tiers (id, country, min_amount, max_amount, fee, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Country, t.MinAmount, t.MaxAmount, t.Fee, t.CreatedAt, t.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FeeTierRepository) Update(ctx context.Context, t *domain.FeeTier) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE fee_tiers SET country = $1, min_amount = $2, max_amount = $3, fee = $4,
			last_modified_at = $5
		WHERE id = $6`,
		t.Country, t.MinAmount, t.MaxAmount, t.Fee, now, t.ID,
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
	t.LastModifiedAt = &now
	return nil
}

// UpdateCountry is the startup normalization pass: it rewrites a stored
// country label to its canonical form in place.
func (r *FeeTierRepository) UpdateCountry(ctx context.Context, id uuid.UUID, country string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE fee_tiers SET country = $1 WHERE id = $2`, country, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateCountry: %w", err)
	}
	return nil
}

func (r *FeeTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fee_tiers WHERE id = $1`, id)
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

func collectFeeTiers(rows *sql.Rows, op string) ([]domain.FeeTier, error) {
	defer rows.Close()

	var tiers []domain.FeeTier
	for rows.Next() {
		t, err := scanFeeTier(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		tiers = append(tiers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return tiers, nil
}

func scanFeeTier(s scanner) (*domain.FeeTier, error) {
	var t domain.FeeTier
	err := s.Scan(&t.ID, &t.Country, &t.MinAmount, &t.MaxAmount, &t.Fee, &t.CreatedAt, &t.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
