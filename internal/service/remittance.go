package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/compliance"
	"github.com/alawneh/eway-backoffice/internal/country"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/logging"
	"github.com/alawneh/eway-backoffice/internal/repository"
)

type remittanceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Remittance, error)
	GetByReference(ctx context.Context, reference string) (*domain.Remittance, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Remittance, error)
	Create(ctx context.Context, tx *sql.Tx, rem *domain.Remittance) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.RemittanceStatus, receiverCashierID *uuid.UUID, paidAt *time.Time) error
	UpdateDetails(ctx context.Context, tx *sql.Tx, rem *domain.Remittance) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit int) ([]domain.Remittance, error)
	ListByStatus(ctx context.Context, status domain.RemittanceStatus, limit int) ([]domain.Remittance, error)
	ListByParty(ctx context.Context, partyID uuid.UUID, limit int) ([]domain.Remittance, error)
	Search(ctx context.Context, f repository.SearchFilter) ([]domain.Remittance, error)
}

type changeRequestStore interface {
	Create(ctx context.Context, tx *sql.Tx, cr *domain.ChangeRequest) error
	ListByRemittance(ctx context.Context, remittanceID uuid.UUID) ([]domain.ChangeRequest, error)
	CountByRemittance(ctx context.Context, remittanceID uuid.UUID) (int, error)
}

type partyChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type cashierChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cashier, error)
}

type feeQuoter interface {
	Resolve(ctx context.Context, rawCountry string, amount decimal.Decimal) (decimal.Decimal, error)
}

type complianceChecker interface {
	EvaluateOnSend(ctx context.Context, senderPartyID uuid.UUID, amount decimal.Decimal) (compliance.Verdict, error)
	EvaluateOnReceive(ctx context.Context, beneficiaryPartyID uuid.UUID, amount decimal.Decimal) (compliance.Verdict, error)
}

type balanceLedger interface {
	DebitSend(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, amount, fee decimal.Decimal) error
	PayOut(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, amount decimal.Decimal) error
	RevertPaid(ctx context.Context, tx *sql.Tx, receiverID, senderID *uuid.UUID, amount, fee decimal.Decimal) error
}

type RemittanceService struct {
	db          *sql.DB
	remittances remittanceStore
	requests    changeRequestStore
	parties     partyChecker
	cashiers    cashierChecker
	fees        feeQuoter
	compliance  complianceChecker
	ledger      balanceLedger
}

func NewRemittanceService(
	db *sql.DB,
	remittances remittanceStore,
	requests changeRequestStore,
	parties partyChecker,
	cashiers cashierChecker,
	fees feeQuoter,
	comp complianceChecker,
	ledger balanceLedger,
) *RemittanceService {
	return &RemittanceService{
		db:          db,
		remittances: remittances,
		requests:    requests,
		parties:     parties,
		cashiers:    cashiers,
		fees:        fees,
		compliance:  comp,
		ledger:      ledger,
	}
}

type CreateRemittanceInput struct {
	SenderID        uuid.UUID
	BeneficiaryID   uuid.UUID
	SenderCashierID uuid.UUID
	Country         string
	Amount          decimal.Decimal
	Reason          string
	Purpose         string
}

// Create resolves the fee, runs the outgoing compliance check and debits the
// sending till. The debit happens even when the transfer opens on hold; only
// the payout side is gated by compliance.
func (s *RemittanceService) Create(ctx context.Context, in CreateRemittanceInput) (*domain.Remittance, error) {
	log := logging.FromContext(ctx)

	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidAmount)
	}
	canonical := country.Normalize(in.Country)
	if canonical == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidCountry)
	}

	for _, partyID := range []uuid.UUID{in.SenderID, in.BeneficiaryID} {
		ok, err := s.parties.Exists(ctx, partyID)
		if err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("Create: %w", domain.ErrPartyNotFound)
		}
	}

	cashier, err := s.cashiers.GetByID(ctx, in.SenderCashierID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if !cashier.IsActive {
		return nil, fmt.Errorf("Create: %w", domain.ErrCashierInactive)
	}

	fee, err := s.fees.Resolve(ctx, canonical, in.Amount)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	verdict, err := s.compliance.EvaluateOnSend(ctx, in.SenderID, in.Amount)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	status := domain.StatusPaymentPending
	if verdict.Hold {
		status = domain.StatusComplianceHold
	}

	now := time.Now().UTC()
	rem := &domain.Remittance{
		ID:              uuid.New(),
		Reference:       domain.NewReference(domain.ReferencePrefixRemittance, now),
		SenderID:        in.SenderID,
		BeneficiaryID:   in.BeneficiaryID,
		SenderCashierID: &in.SenderCashierID,
		Country:         canonical,
		Amount:          in.Amount,
		Fee:             fee,
		Reason:          in.Reason,
		Purpose:         in.Purpose,
		Status:          status,
		CreatedAt:       now,
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ledger.DebitSend(ctx, tx, in.SenderCashierID, in.Amount, fee); err != nil {
			return err
		}
		return s.remittances.Create(ctx, tx, rem)
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("remittance created",
		"remittance_id", rem.ID,
		"reference", rem.Reference,
		"amount", rem.Amount,
		"fee", rem.Fee,
		"status", rem.Status,
		"compliance_hold", verdict.Hold,
	)
	return rem, nil
}

// MarkPaid delivers the remittance through the given receiving cashier. The
// incoming compliance check runs first; a hold is persisted and the payout
// rejected with no balance change. Insufficient till balance rolls everything
// back, leaving the status untouched.
func (s *RemittanceService) MarkPaid(ctx context.Context, id, receiverCashierID uuid.UUID) (*domain.Remittance, error) {
	log := logging.FromContext(ctx)

	var held bool
	var holdReason string
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rem.Status.CanMarkPaid() {
			return domain.ErrInvalidTransition
		}

		verdict, err := s.compliance.EvaluateOnReceive(ctx, rem.BeneficiaryID, rem.Amount)
		if err != nil {
			return err
		}
		if verdict.Hold {
			held = true
			holdReason = verdict.Reason
			return s.remittances.UpdateStatus(ctx, tx, id, domain.StatusComplianceHold, nil, nil)
		}

		return s.payOut(ctx, tx, rem, receiverCashierID)
	})
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}
	if held {
		log.Warn("payout held for compliance", "remittance_id", id, "reason", holdReason)
		return nil, fmt.Errorf("MarkPaid: %w", domain.ErrComplianceHold)
	}

	rem, err := s.remittances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}
	log.Info("remittance paid", "remittance_id", id, "receiver_cashier_id", receiverCashierID)
	return rem, nil
}

// ForcePay pays out a held remittance, bypassing the compliance re-check.
// Balance sufficiency is still enforced.
func (s *RemittanceService) ForcePay(ctx context.Context, id, receiverCashierID uuid.UUID) (*domain.Remittance, error) {
	log := logging.FromContext(ctx)

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rem.Status.CanRelease() {
			return domain.ErrNotOnHold
		}
		return s.payOut(ctx, tx, rem, receiverCashierID)
	})
	if err != nil {
		return nil, fmt.Errorf("ForcePay: %w", err)
	}

	rem, err := s.remittances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ForcePay: %w", err)
	}
	log.Warn("remittance force-paid", "remittance_id", id, "receiver_cashier_id", receiverCashierID)
	return rem, nil
}

func (s *RemittanceService) payOut(ctx context.Context, tx *sql.Tx, rem *domain.Remittance, receiverCashierID uuid.UUID) error {
	receiver, err := s.cashiers.GetByID(ctx, receiverCashierID)
	if err != nil {
		return err
	}
	if !receiver.IsActive {
		return domain.ErrCashierInactive
	}
	if err := s.ledger.PayOut(ctx, tx, receiverCashierID, rem.Amount); err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.remittances.UpdateStatus(ctx, tx, rem.ID, domain.StatusPaid, &receiverCashierID, &now)
}

// Release lifts a compliance hold without re-checking. The override is
// recorded as an approved change request whose note carries the release tag.
func (s *RemittanceService) Release(ctx context.Context, id uuid.UUID, note string) (*domain.Remittance, error) {
	log := logging.FromContext(ctx)

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rem.Status.CanRelease() {
			return domain.ErrNotOnHold
		}
		if err := s.remittances.UpdateStatus(ctx, tx, id, domain.StatusPaymentPending, nil, nil); err != nil {
			return err
		}

		now := time.Now().UTC()
		tagged := strings.TrimSpace(domain.ReleaseNotePrefix + " " + note)
		return s.requests.Create(ctx, tx, &domain.ChangeRequest{
			ID:           uuid.New(),
			RemittanceID: id,
			RequestType:  domain.ChangeRequestReturnToPending,
			Notes:        &tagged,
			Status:       domain.ChangeRequestApproved,
			CreatedAt:    now,
			ApprovedAt:   &now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("Release: %w", err)
	}

	rem, err := s.remittances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Release: %w", err)
	}
	log.Warn("compliance hold released", "remittance_id", id)
	return rem, nil
}

// ReturnToPending undoes a delivered remittance directly: both ledger effects
// are reversed and the transfer returns to the working status.
func (s *RemittanceService) ReturnToPending(ctx context.Context, id uuid.UUID) (*domain.Remittance, error) {
	log := logging.FromContext(ctx)

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if rem.Status != domain.StatusPaid {
			return domain.ErrInvalidTransition
		}
		if err := s.ledger.RevertPaid(ctx, tx, rem.ReceiverCashierID, rem.SenderCashierID, rem.Amount, rem.Fee); err != nil {
			return err
		}
		return s.remittances.UpdateStatus(ctx, tx, id, domain.StatusPaymentPending, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("ReturnToPending: %w", err)
	}

	rem, err := s.remittances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ReturnToPending: %w", err)
	}
	log.Info("remittance returned to pending", "remittance_id", id)
	return rem, nil
}

type UpdateRemittanceInput struct {
	SenderID      uuid.UUID
	BeneficiaryID uuid.UUID
	Country       string
	Amount        decimal.Decimal
	Reason        string
	Purpose       string
}

// Update edits an undelivered remittance in place, re-validating parties and
// recomputing the fee. The creation-time debit is not re-adjusted.
func (s *RemittanceService) Update(ctx context.Context, id uuid.UUID, in UpdateRemittanceInput) (*domain.Remittance, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("Update: %w", domain.ErrInvalidAmount)
	}
	canonical := country.Normalize(in.Country)
	if canonical == "" {
		return nil, fmt.Errorf("Update: %w", domain.ErrInvalidCountry)
	}
	for _, partyID := range []uuid.UUID{in.SenderID, in.BeneficiaryID} {
		ok, err := s.parties.Exists(ctx, partyID)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("Update: %w", domain.ErrPartyNotFound)
		}
	}
	fee, err := s.fees.Resolve(ctx, canonical, in.Amount)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if rem.Status == domain.StatusPaid {
			return domain.ErrInvalidTransition
		}
		rem.SenderID = in.SenderID
		rem.BeneficiaryID = in.BeneficiaryID
		rem.Country = canonical
		rem.Amount = in.Amount
		rem.Fee = fee
		rem.Reason = in.Reason
		rem.Purpose = in.Purpose
		return s.remittances.UpdateDetails(ctx, tx, rem)
	})
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return s.remittances.GetByID(ctx, id)
}

// Delete removes a remittance with no change-request history. The record is
// the only audit trail once requests exist, so those are kept.
func (s *RemittanceService) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.requests.CountByRemittance(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("Delete: %w", domain.ErrHasChangeRequests)
	}
	if err := s.remittances.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *RemittanceService) Get(ctx context.Context, id uuid.UUID) (*domain.Remittance, error) {
	return s.remittances.GetByID(ctx, id)
}

// RemittanceWithReleaseNote pairs a remittance with the latest release-tagged
// note from its change-request history, if any.
type RemittanceWithReleaseNote struct {
	Remittance  *domain.Remittance
	ReleaseNote *string
}

func (s *RemittanceService) GetByReference(ctx context.Context, reference string) (*RemittanceWithReleaseNote, error) {
	rem, err := s.remittances.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	requests, err := s.requests.ListByRemittance(ctx, rem.ID)
	if err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}

	var note *string
	for _, cr := range requests {
		if cr.Notes != nil && strings.HasPrefix(*cr.Notes, domain.ReleaseNotePrefix) {
			note = cr.Notes
		}
	}
	return &RemittanceWithReleaseNote{Remittance: rem, ReleaseNote: note}, nil
}

func (s *RemittanceService) List(ctx context.Context, limit int) ([]domain.Remittance, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.remittances.List(ctx, limit)
}

func (s *RemittanceService) ListHolds(ctx context.Context) ([]domain.Remittance, error) {
	return s.remittances.ListByStatus(ctx, domain.StatusComplianceHold, 500)
}

func (s *RemittanceService) ListByParty(ctx context.Context, partyID uuid.UUID) ([]domain.Remittance, error) {
	return s.remittances.ListByParty(ctx, partyID, 200)
}

func (s *RemittanceService) Search(ctx context.Context, f repository.SearchFilter) ([]domain.Remittance, error) {
	return s.remittances.Search(ctx, f)
}
