package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/country"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/logging"
	"github.com/alawneh/eway-backoffice/internal/repository"
)

type changeRequestWorkflowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ChangeRequest, error)
	Create(ctx context.Context, tx *sql.Tx, cr *domain.ChangeRequest) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ChangeRequestStatus, approvedAt *time.Time) error
	ListByStatus(ctx context.Context, status domain.ChangeRequestStatus) ([]domain.ChangeRequest, error)
	ListByRemittance(ctx context.Context, remittanceID uuid.UUID) ([]domain.ChangeRequest, error)
	HasOtherPending(ctx context.Context, tx *sql.Tx, remittanceID, excludeID uuid.UUID) (bool, error)
}

// ChangeRequestService runs the secondary approval layer: edits and
// reversals to an existing remittance are filed as requests and only take
// effect on approval.
type ChangeRequestService struct {
	db          *sql.DB
	requests    changeRequestWorkflowStore
	remittances remittanceStore
	fees        feeQuoter
	ledger      balanceLedger
}

func NewChangeRequestService(
	db *sql.DB,
	requests changeRequestWorkflowStore,
	remittances remittanceStore,
	fees feeQuoter,
	ledger balanceLedger,
) *ChangeRequestService {
	return &ChangeRequestService{
		db:          db,
		requests:    requests,
		remittances: remittances,
		fees:        fees,
		ledger:      ledger,
	}
}

type FileChangeRequestInput struct {
	Reference       string
	RequestType     domain.ChangeRequestType
	Notes           *string
	ProposedCountry *string
	ProposedAmount  *decimal.Decimal
	ProposedReason  *string
	ProposedPurpose *string
}

// File records a new pending request against the remittance identified by its
// reference and moves the remittance into the approval-gated status.
func (s *ChangeRequestService) File(ctx context.Context, in FileChangeRequestInput) (*domain.ChangeRequest, error) {
	log := logging.FromContext(ctx)

	switch in.RequestType {
	case domain.ChangeRequestReturnToPending, domain.ChangeRequestUpdateDetails:
	default:
		return nil, fmt.Errorf("File: %w", domain.ErrInvalidRequest)
	}
	if in.ProposedAmount != nil && !in.ProposedAmount.IsPositive() {
		return nil, fmt.Errorf("File: %w", domain.ErrInvalidAmount)
	}

	target, err := s.remittances.GetByReference(ctx, in.Reference)
	if err != nil {
		return nil, fmt.Errorf("File: %w", err)
	}

	cr := &domain.ChangeRequest{
		ID:              uuid.New(),
		RemittanceID:    target.ID,
		RequestType:     in.RequestType,
		Notes:           in.Notes,
		ProposedCountry: in.ProposedCountry,
		ProposedAmount:  in.ProposedAmount,
		ProposedReason:  in.ProposedReason,
		ProposedPurpose: in.ProposedPurpose,
		Status:          domain.ChangeRequestPending,
		CreatedAt:       time.Now().UTC(),
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rem, err := s.remittances.GetForUpdate(ctx, tx, target.ID)
		if err != nil {
			return err
		}
		if err := s.requests.Create(ctx, tx, cr); err != nil {
			return err
		}
		// PaidAt is kept so an approval can still tell whether the payout
		// needs reversing.
		return s.remittances.UpdateStatus(ctx, tx, rem.ID, domain.StatusPendingApproval, nil, rem.PaidAt)
	})
	if err != nil {
		return nil, fmt.Errorf("File: %w", err)
	}

	log.Info("change request filed",
		"request_id", cr.ID,
		"remittance_id", cr.RemittanceID,
		"request_type", cr.RequestType,
	)
	return cr, nil
}

// Approve applies the request. A return-to-pending on a delivered remittance
// reverses both ledger effects; an update-details copies the present proposed
// fields and recomputes the fee without touching the status.
func (s *ChangeRequestService) Approve(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error) {
	log := logging.FromContext(ctx)

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		cr, err := s.requests.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cr.Status != domain.ChangeRequestPending {
			return domain.ErrRequestNotPending
		}
		rem, err := s.remittances.GetForUpdate(ctx, tx, cr.RemittanceID)
		if err != nil {
			return err
		}

		switch cr.RequestType {
		case domain.ChangeRequestReturnToPending:
			if rem.PaidAt != nil {
				if err := s.ledger.RevertPaid(ctx, tx, rem.ReceiverCashierID, rem.SenderCashierID, rem.Amount, rem.Fee); err != nil {
					return err
				}
			}
			if err := s.remittances.UpdateStatus(ctx, tx, rem.ID, domain.StatusPaymentPending, nil, nil); err != nil {
				return err
			}
		case domain.ChangeRequestUpdateDetails:
			if err := s.applyDetails(ctx, tx, rem, cr); err != nil {
				return err
			}
		default:
			return domain.ErrInvalidRequest
		}

		now := time.Now().UTC()
		return s.requests.UpdateStatus(ctx, tx, cr.ID, domain.ChangeRequestApproved, &now)
	})
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	cr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	log.Info("change request approved", "request_id", id, "remittance_id", cr.RemittanceID)
	return cr, nil
}

func (s *ChangeRequestService) applyDetails(ctx context.Context, tx *sql.Tx, rem *domain.Remittance, cr *domain.ChangeRequest) error {
	if cr.ProposedCountry != nil && *cr.ProposedCountry != "" {
		canonical := country.Normalize(*cr.ProposedCountry)
		if canonical == "" {
			return domain.ErrInvalidCountry
		}
		rem.Country = canonical
	}
	if cr.ProposedAmount != nil {
		if !cr.ProposedAmount.IsPositive() {
			return domain.ErrInvalidAmount
		}
		rem.Amount = *cr.ProposedAmount
	}
	if cr.ProposedReason != nil && *cr.ProposedReason != "" {
		rem.Reason = *cr.ProposedReason
	}
	if cr.ProposedPurpose != nil && *cr.ProposedPurpose != "" {
		rem.Purpose = *cr.ProposedPurpose
	}

	fee, err := s.fees.Resolve(ctx, rem.Country, rem.Amount)
	if err != nil {
		return err
	}
	rem.Fee = fee
	return s.remittances.UpdateDetails(ctx, tx, rem)
}

// Reject closes the request. The remittance is only restored to the working
// status once no other pending request remains against it.
func (s *ChangeRequestService) Reject(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error) {
	log := logging.FromContext(ctx)

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		cr, err := s.requests.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if cr.Status != domain.ChangeRequestPending {
			return domain.ErrRequestNotPending
		}
		if err := s.requests.UpdateStatus(ctx, tx, cr.ID, domain.ChangeRequestRejected, nil); err != nil {
			return err
		}

		rem, err := s.remittances.GetForUpdate(ctx, tx, cr.RemittanceID)
		if err != nil {
			return err
		}
		if rem.Status != domain.StatusPendingApproval {
			return nil
		}
		hasOther, err := s.requests.HasOtherPending(ctx, tx, rem.ID, cr.ID)
		if err != nil {
			return err
		}
		if hasOther {
			return nil
		}
		return s.remittances.UpdateStatus(ctx, tx, rem.ID, domain.StatusPaymentPending, nil, rem.PaidAt)
	})
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	cr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	log.Info("change request rejected", "request_id", id, "remittance_id", cr.RemittanceID)
	return cr, nil
}

func (s *ChangeRequestService) ListPending(ctx context.Context) ([]domain.ChangeRequest, error) {
	return s.requests.ListByStatus(ctx, domain.ChangeRequestPending)
}

func (s *ChangeRequestService) ListByRemittance(ctx context.Context, remittanceID uuid.UUID) ([]domain.ChangeRequest, error) {
	return s.requests.ListByRemittance(ctx, remittanceID)
}
