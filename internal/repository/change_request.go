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

const changeRequestColumns = `id, remittance_id, request_type, notes, proposed_country,
	proposed_amount, proposed_reason, proposed_purpose, status, created_at, approved_at`

type ChangeRequestRepository struct {
	db *sql.DB
}

func NewChangeRequestRepository(db *sql.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+changeRequestColumns+` FROM remittance_change_requests WHERE id = $1`, id,
	)
	cr, err := scanChangeRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return cr, nil
}

// GetForUpdate locks the request row so approve and reject on the same
// request serialize.
func (r *ChangeRequestRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ChangeRequest, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+changeRequestColumns+` FROM remittance_change_requests WHERE id = $1 FOR UPDATE`, id,
	)
	cr, err := scanChangeRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return cr, nil
}

func (r *ChangeRequestRepository) Create(ctx context.Context, tx *sql.Tx, cr *domain.ChangeRequest) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO remittance_change_requests (
			id, remittance_id, request_type, notes, proposed_country,
			proposed_amount, proposed_reason, proposed_purpose, status, created_at, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		cr.ID, cr.RemittanceID, cr.RequestType, cr.Notes, cr.ProposedCountry,
		cr.ProposedAmount, cr.ProposedReason, cr.ProposedPurpose, cr.Status, cr.CreatedAt, cr.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// UpdateStatus resolves a request. approvedAt stays nil on rejection.
func (r *ChangeRequestRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ChangeRequestStatus, approvedAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE remittance_change_requests SET status = $1, approved_at = $2 WHERE id = $3`,
		status, approvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ChangeRequestRepository) ListByStatus(ctx context.Context, status domain.ChangeRequestStatus) ([]domain.ChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeRequestColumns+` FROM remittance_change_requests
		WHERE status = $1 ORDER BY created_at`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return collectChangeRequests(rows, "ListByStatus")
}

func (r *ChangeRequestRepository) ListByRemittance(ctx context.Context, remittanceID uuid.UUID) ([]domain.ChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeRequestColumns+` FROM remittance_change_requests
		WHERE remittance_id = $1 ORDER BY created_at`,
		remittanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByRemittance: %w", err)
	}
	return collectChangeRequests(rows, "ListByRemittance")
}

// HasOtherPending reports whether the remittance still has a pending request
// besides the one being resolved. Rejection only returns the remittance to
// its working status once nothing else is waiting on it.
func (r *ChangeRequestRepository) HasOtherPending(ctx context.Context, tx *sql.Tx, remittanceID, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM remittance_change_requests
			WHERE remittance_id = $1 AND id <> $2 AND status = $3
		)`,
		remittanceID, excludeID, domain.ChangeRequestPending,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("HasOtherPending: %w", err)
	}
	return exists, nil
}

func (r *ChangeRequestRepository) CountByRemittance(ctx context.Context, remittanceID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM remittance_change_requests WHERE remittance_id = $1`, remittanceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByRemittance: %w", err)
	}
	return count, nil
}

func collectChangeRequests(rows *sql.Rows, op string) ([]domain.ChangeRequest, error) {
	defer rows.Close()

	var requests []domain.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		requests = append(requests, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return requests, nil
}

func scanChangeRequest(s scanner) (*domain.ChangeRequest, error) {
	var cr domain.ChangeRequest
	err := s.Scan(
		&cr.ID, &cr.RemittanceID, &cr.RequestType, &cr.Notes, &cr.ProposedCountry,
		&cr.ProposedAmount, &cr.ProposedReason, &cr.ProposedPurpose, &cr.Status, &cr.CreatedAt, &cr.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}
