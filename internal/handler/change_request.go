package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/service"
)

type changeRequestService interface {
	File(ctx context.Context, in service.FileChangeRequestInput) (*domain.ChangeRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.ChangeRequest, error)
	ListPending(ctx context.Context) ([]domain.ChangeRequest, error)
	ListByRemittance(ctx context.Context, remittanceID uuid.UUID) ([]domain.ChangeRequest, error)
}

type ChangeRequestHandler struct {
	requests changeRequestService
}

func NewChangeRequestHandler(requests changeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{requests: requests}
}

type changeRequestDTO struct {
	ID              uuid.UUID  `json:"id"`
	RemittanceID    uuid.UUID  `json:"remittance_id"`
	RequestType     string     `json:"request_type"`
	Notes           *string    `json:"notes"`
	ProposedCountry *string    `json:"proposed_country"`
	ProposedAmount  *string    `json:"proposed_amount"`
	ProposedReason  *string    `json:"proposed_reason"`
	ProposedPurpose *string    `json:"proposed_purpose"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
}

func toChangeRequestDTO(cr *domain.ChangeRequest) changeRequestDTO {
	dto := changeRequestDTO{
		ID:              cr.ID,
		RemittanceID:    cr.RemittanceID,
		RequestType:     string(cr.RequestType),
		Notes:           cr.Notes,
		ProposedCountry: cr.ProposedCountry,
		ProposedReason:  cr.ProposedReason,
		ProposedPurpose: cr.ProposedPurpose,
		Status:          string(cr.Status),
		CreatedAt:       cr.CreatedAt,
		ApprovedAt:      cr.ApprovedAt,
	}
	if cr.ProposedAmount != nil {
		s := cr.ProposedAmount.StringFixed(2)
		dto.ProposedAmount = &s
	}
	return dto
}

func toChangeRequestDTOs(crs []domain.ChangeRequest) []changeRequestDTO {
	dtos := make([]changeRequestDTO, 0, len(crs))
	for i := range crs {
		dtos = append(dtos, toChangeRequestDTO(&crs[i]))
	}
	return dtos
}

type fileChangeRequestRequest struct {
	Reference       string  `json:"reference"`
	RequestType     string  `json:"request_type"`
	Notes           *string `json:"notes"`
	ProposedCountry *string `json:"proposed_country"`
	ProposedAmount  *string `json:"proposed_amount"`
	ProposedReason  *string `json:"proposed_reason"`
	ProposedPurpose *string `json:"proposed_purpose"`
}

func (r fileChangeRequestRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Reference == "" {
		errs = append(errs, FieldError{Field: "reference", Message: "required"})
	}
	switch domain.ChangeRequestType(r.RequestType) {
	case domain.ChangeRequestReturnToPending, domain.ChangeRequestUpdateDetails:
	default:
		errs = append(errs, FieldError{Field: "request_type", Message: "must be return_to_pending or update_details"})
	}
	if r.ProposedAmount != nil {
		if amount, err := decimal.NewFromString(*r.ProposedAmount); err != nil || !amount.IsPositive() {
			errs = append(errs, FieldError{Field: "proposed_amount", Message: "must be a number greater than 0"})
		}
	}
	return errs
}

func (h *ChangeRequestHandler) File(w http.ResponseWriter, r *http.Request) {
	var req fileChangeRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var proposedAmount *decimal.Decimal
	if req.ProposedAmount != nil {
		amount, _ := decimal.NewFromString(*req.ProposedAmount)
		proposedAmount = &amount
	}

	cr, err := h.requests.File(r.Context(), service.FileChangeRequestInput{
		Reference:       req.Reference,
		RequestType:     domain.ChangeRequestType(req.RequestType),
		Notes:           req.Notes,
		ProposedCountry: req.ProposedCountry,
		ProposedAmount:  proposedAmount,
		ProposedReason:  req.ProposedReason,
		ProposedPurpose: req.ProposedPurpose,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toChangeRequestDTO(cr))
}

func (h *ChangeRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	cr, err := h.requests.Approve(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toChangeRequestDTO(cr))
}

func (h *ChangeRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	cr, err := h.requests.Reject(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toChangeRequestDTO(cr))
}

func (h *ChangeRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	crs, err := h.requests.ListPending(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toChangeRequestDTOs(crs))
}

func (h *ChangeRequestHandler) ListByRemittance(w http.ResponseWriter, r *http.Request) {
	remittanceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	crs, err := h.requests.ListByRemittance(r.Context(), remittanceID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toChangeRequestDTOs(crs))
}
