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

const remittanceColumns = `id, reference, sender_id, beneficiary_id, sender_cashier_id,
	receiver_cashier_id, country, amount, fee, reason, purpose, status, created_at, paid_at`

type RemittanceRepository struct {
	db *sql.DB
}

func NewRemittanceRepository(db *sql.DB) *RemittanceRepository {
	return &RemittanceRepository{db: db}
}

func (r *RemittanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Remittance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances WHERE id = $1`, id,
	)
	rem, err := scanRemittance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rem, nil
}

// GetByReference returns the most recent remittance carrying the reference;
// references have millisecond resolution and are not strictly unique.
func (r *RemittanceRepository) GetByReference(ctx context.Context, reference string) (*domain.Remittance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances
		WHERE reference = $1 ORDER BY created_at DESC LIMIT 1`,
		reference,
	)
	rem, err := scanRemittance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByReference: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return rem, nil
}

// GetForUpdate locks the remittance row so two concurrent transitions on
// the same transfer serialize instead of racing.
func (r *RemittanceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Remittance, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances WHERE id = $1 FOR UPDATE`, id,
	)
	rem, err := scanRemittance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return rem, nil
}

func (r *RemittanceRepository) Create(ctx context.Context, tx *sql.Tx, rem *domain.Remittance) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO remittances (
			id, reference, sender_id, beneficiary_id, sender_cashier_id,
			receiver_cashier_id, country, amount, fee, reason, purpose, status, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rem.ID, rem.Reference, rem.SenderID, rem.BeneficiaryID, rem.SenderCashierID,
		rem.ReceiverCashierID, rem.Country, rem.Amount, rem.Fee, rem.Reason, rem.Purpose,
		rem.Status, rem.CreatedAt, rem.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RemittanceRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.RemittanceStatus, receiverCashierID *uuid.UUID, paidAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE remittances SET status = $1, receiver_cashier_id = COALESCE($2, receiver_cashier_id), paid_at = $3
		WHERE id = $4`,
		status, receiverCashierID, paidAt, id,
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

// UpdateDetails rewrites the editable fields and the recomputed fee.
func (r *RemittanceRepository) UpdateDetails(ctx context.Context, tx *sql.Tx, rem *domain.Remittance) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE remittances SET sender_id = $1, beneficiary_id = $2, country = $3,
			amount = $4, fee = $5, reason = $6, purpose = $7
		WHERE id = $8`,
		rem.SenderID, rem.BeneficiaryID, rem.Country,
		rem.Amount, rem.Fee, rem.Reason, rem.Purpose, rem.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateDetails: %w", err)
	}
	return nil
}

func (r *RemittanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM remittances WHERE id = $1`, id)
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

func (r *RemittanceRepository) List(ctx context.Context, limit int) ([]domain.Remittance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return collectRemittances(rows, "List")
}

func (r *RemittanceRepository) ListByStatus(ctx context.Context, status domain.RemittanceStatus, limit int) ([]domain.Remittance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return collectRemittances(rows, "ListByStatus")
}

func (r *RemittanceRepository) ListByParty(ctx context.Context, partyID uuid.UUID, limit int) ([]domain.Remittance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+remittanceColumns+` FROM remittances
		WHERE sender_id = $1 OR beneficiary_id = $1
		ORDER BY created_at DESC LIMIT $2`,
		partyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByParty: %w", err)
	}
	return collectRemittances(rows, "ListByParty")
}

// SearchFilter narrows the remittance listing. Zero values mean "no filter".
type SearchFilter struct {
	Query string
	From  *time.Time
	To    *time.Time
	Limit int
}

func (r *RemittanceRepository) Search(ctx context.Context, f SearchFilter) ([]domain.Remittance, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + q + "%"
		p := arg(pattern)
		conds = append(conds, fmt.Sprintf(
			`(r.reference LIKE %[1]s
			OR s.national_id LIKE %[1]s OR b.national_id LIKE %[1]s
			OR s.name_ar ILIKE %[1]s OR b.name_ar ILIKE %[1]s
			OR s.name_en ILIKE %[1]s OR b.name_en ILIKE %[1]s)`, p))
	}
	if f.From != nil {
		conds = append(conds, "r.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		// Inclusive of the whole end day.
		conds = append(conds, "r.created_at < "+arg(f.To.AddDate(0, 0, 1)))
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
		`SELECT r.id, r.reference, r.sender_id, r.beneficiary_id, r.sender_cashier_id,
			r.receiver_cashier_id, r.country, r.amount, r.fee, r.reason, r.purpose,
			r.status, r.created_at, r.paid_at
		FROM remittances r
		JOIN parties s ON s.id = r.sender_id
		JOIN parties b ON b.id = r.beneficiary_id
		%s
		ORDER BY r.created_at DESC
		LIMIT %s`, where, arg(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	return collectRemittances(rows, "Search")
}

// SumSentByParty feeds the outgoing compliance check: every remittance the
// party has ever sent counts, whatever its status.
func (r *RemittanceRepository) SumSentByParty(ctx context.Context, partyID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM remittances WHERE sender_id = $1`, partyID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumSentByParty: %w", err)
	}
	return total, nil
}

// SumPaidToBeneficiary feeds the incoming check: only delivered money counts.
func (r *RemittanceRepository) SumPaidToBeneficiary(ctx context.Context, partyID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM remittances
		WHERE beneficiary_id = $1 AND status = $2`,
		partyID, domain.StatusPaid,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumPaidToBeneficiary: %w", err)
	}
	return total, nil
}

func (r *RemittanceRepository) CountByParty(ctx context.Context, partyID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM remittances WHERE sender_id = $1 OR beneficiary_id = $1`, partyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByParty: %w", err)
	}
	return count, nil
}

// CashierCounts returns outgoing/incoming remittance counts for a cashier.
func (r *RemittanceRepository) CashierCounts(ctx context.Context, cashierID uuid.UUID) (outgoing, incoming int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE sender_cashier_id = $1),
			COUNT(*) FILTER (WHERE receiver_cashier_id = $1)
		FROM remittances`,
		cashierID,
	).Scan(&outgoing, &incoming)
	if err != nil {
		return 0, 0, fmt.Errorf("CashierCounts: %w", err)
	}
	return outgoing, incoming, nil
}

func collectRemittances(rows *sql.Rows, op string) ([]domain.Remittance, error) {
	defer rows.Close()

	var remittances []domain.Remittance
	for rows.Next() {
		rem, err := scanRemittance(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		remittances = append(remittances, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return remittances, nil
}

func scanRemittance(s scanner) (*domain.Remittance, error) {
	var rem domain.Remittance
	err := s.Scan(
		&rem.ID, &rem.Reference, &rem.SenderID, &rem.BeneficiaryID, &rem.SenderCashierID,
		&rem.ReceiverCashierID, &rem.Country, &rem.Amount, &rem.Fee, &rem.Reason, &rem.Purpose,
		&rem.Status, &rem.CreatedAt, &rem.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}
