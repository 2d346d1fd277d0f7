package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type complianceService interface {
	ListHolds(ctx context.Context) ([]domain.Remittance, error)
	Release(ctx context.Context, id uuid.UUID, note string) (*domain.Remittance, error)
	ForcePay(ctx context.Context, id, receiverCashierID uuid.UUID) (*domain.Remittance, error)
}

// ComplianceHandler exposes the hold queue and the two administrative
// overrides: release back to pending and forced payout.
type ComplianceHandler struct {
	remittances complianceService
}

func NewComplianceHandler(remittances complianceService) *ComplianceHandler {
	return &ComplianceHandler{remittances: remittances}
}

func (h *ComplianceHandler) ListHolds(w http.ResponseWriter, r *http.Request) {
	holds, err := h.remittances.ListHolds(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTOs(holds))
}

type releaseRequest struct {
	Note string `json:"note"`
}

func (h *ComplianceHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	rem, err := h.remittances.Release(r.Context(), id, req.Note)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}

func (h *ComplianceHandler) ForcePay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverCashierID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "receiver_cashier_id", Message: "must be a valid UUID"}})
		return
	}

	rem, err := h.remittances.ForcePay(r.Context(), id, receiverID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}
