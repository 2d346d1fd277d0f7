package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

const partyColumns = `id, national_id, name_ar, name_en, phone_number, birth_date,
	address, party_type, created_at, last_modified_at`

type PartyRepository struct {
	db *sql.DB
}

func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Party, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE id = $1`, id,
	)
	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrPartyNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// Exists is the lightweight check remittance creation uses; it avoids
// loading the full row just to verify a foreign key.
func (r *PartyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM parties WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

func (r *PartyRepository) Create(ctx context.Context, p *domain.Party) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parties (
			id, national_id, name_ar, name_en, phone_number, birth_date,
			address, party_type, created_at, last_modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.NationalID, p.NameAr, p.NameEn, p.PhoneNumber, p.BirthDate,
		p.Address, p.Type, p.CreatedAt, p.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PartyRepository) Update(ctx context.Context, p *domain.Party) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE parties SET national_id = $1, name_ar = $2, name_en = $3, phone_number = $4,
			birth_date = $5, address = $6, party_type = $7, last_modified_at = $8
		WHERE id = $9`,
		p.NationalID, p.NameAr, p.NameEn, p.PhoneNumber,
		p.BirthDate, p.Address, p.Type, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrPartyNotFound)
	}
	p.LastModifiedAt = &now
	return nil
}

func (r *PartyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrPartyNotFound)
	}
	return nil
}

// Search matches on national ID substring or either name, case-insensitive
// for names, capped at 50 rows.
func (r *PartyRepository) Search(ctx context.Context, q string) ([]domain.Party, error) {
	q = strings.TrimSpace(q)
	pattern := "%" + q + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+partyColumns+` FROM parties
		WHERE national_id LIKE $1 OR name_ar ILIKE $1 OR name_en ILIKE $1
		ORDER BY name_ar
		LIMIT 50`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer rows.Close()

	var parties []domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: scan: %w", err)
		}
		parties = append(parties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: rows: %w", err)
	}
	return parties, nil
}

func scanParty(s scanner) (*domain.Party, error) {
	var p domain.Party
	err := s.Scan(
		&p.ID, &p.NationalID, &p.NameAr, &p.NameEn, &p.PhoneNumber, &p.BirthDate,
		&p.Address, &p.Type, &p.CreatedAt, &p.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
