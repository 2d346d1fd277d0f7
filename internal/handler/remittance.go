package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/repository"
	"github.com/alawneh/eway-backoffice/internal/service"
)

type remittanceService interface {
	Create(ctx context.Context, in service.CreateRemittanceInput) (*domain.Remittance, error)
	MarkPaid(ctx context.Context, id, receiverCashierID uuid.UUID) (*domain.Remittance, error)
	ReturnToPending(ctx context.Context, id uuid.UUID) (*domain.Remittance, error)
	Update(ctx context.Context, id uuid.UUID, in service.UpdateRemittanceInput) (*domain.Remittance, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Remittance, error)
	GetByReference(ctx context.Context, reference string) (*service.RemittanceWithReleaseNote, error)
	List(ctx context.Context, limit int) ([]domain.Remittance, error)
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]domain.Remittance, error)
	Search(ctx context.Context, f repository.SearchFilter) ([]domain.Remittance, error)
}

type RemittanceHandler struct {
	remittances remittanceService
}

func NewRemittanceHandler(remittances remittanceService) *RemittanceHandler {
	return &RemittanceHandler{remittances: remittances}
}

type remittanceDTO struct {
	ID                uuid.UUID  `json:"id"`
	Reference         string     `json:"reference"`
	SenderID          uuid.UUID  `json:"sender_id"`
	BeneficiaryID     uuid.UUID  `json:"beneficiary_id"`
	SenderCashierID   *uuid.UUID `json:"sender_cashier_id"`
	ReceiverCashierID *uuid.UUID `json:"receiver_cashier_id"`
	Country           string     `json:"country"`
	Amount            string     `json:"amount"`
	Fee               string     `json:"fee"`
	Reason            string     `json:"reason"`
	Purpose           string     `json:"purpose"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	PaidAt            *time.Time `json:"paid_at"`
	ReleaseNote       *string    `json:"release_note,omitempty"`
}

func toRemittanceDTO(rem *domain.Remittance) remittanceDTO {
	return remittanceDTO{
		ID:                rem.ID,
		Reference:         rem.Reference,
		SenderID:          rem.SenderID,
		BeneficiaryID:     rem.BeneficiaryID,
		SenderCashierID:   rem.SenderCashierID,
		ReceiverCashierID: rem.ReceiverCashierID,
		Country:           rem.Country,
		Amount:            rem.Amount.StringFixed(2),
		Fee:               rem.Fee.StringFixed(2),
		Reason:            rem.Reason,
		Purpose:           rem.Purpose,
		Status:            string(rem.Status),
		CreatedAt:         rem.CreatedAt,
		PaidAt:            rem.PaidAt,
	}
}

func toRemittanceDTOs(rems []domain.Remittance) []remittanceDTO {
	dtos := make([]remittanceDTO, 0, len(rems))
	for i := range rems {
		dtos = append(dtos, toRemittanceDTO(&rems[i]))
	}
	return dtos
}

type createRemittanceRequest struct {
	SenderID        string `json:"sender_id"`
	BeneficiaryID   string `json:"beneficiary_id"`
	SenderCashierID string `json:"sender_cashier_id"`
	Country         string `json:"country"`
	Amount          string `json:"amount"`
	Reason          string `json:"reason"`
	Purpose         string `json:"purpose"`
}

func (r createRemittanceRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.SenderID); err != nil {
		errs = append(errs, FieldError{Field: "sender_id", Message: "must be a valid UUID"})
	}
	if _, err := uuid.Parse(r.BeneficiaryID); err != nil {
		errs = append(errs, FieldError{Field: "beneficiary_id", Message: "must be a valid UUID"})
	}
	if _, err := uuid.Parse(r.SenderCashierID); err != nil {
		errs = append(errs, FieldError{Field: "sender_cashier_id", Message: "must be a valid UUID"})
	}
	if r.Country == "" {
		errs = append(errs, FieldError{Field: "country", Message: "required"})
	}
	if amount, err := decimal.NewFromString(r.Amount); err != nil || !amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a number greater than 0"})
	}
	return errs
}

func (h *RemittanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRemittanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	rem, err := h.remittances.Create(r.Context(), service.CreateRemittanceInput{
		SenderID:        uuid.MustParse(req.SenderID),
		BeneficiaryID:   uuid.MustParse(req.BeneficiaryID),
		SenderCashierID: uuid.MustParse(req.SenderCashierID),
		Country:         req.Country,
		Amount:          amount,
		Reason:          req.Reason,
		Purpose:         req.Purpose,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toRemittanceDTO(rem))
}

type markPaidRequest struct {
	ReceiverCashierID string `json:"receiver_cashier_id"`
}

func (h *RemittanceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
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

	rem, err := h.remittances.MarkPaid(r.Context(), id, receiverID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}

func (h *RemittanceHandler) ReturnToPending(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	rem, err := h.remittances.ReturnToPending(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}

type updateRemittanceRequest struct {
	SenderID      string `json:"sender_id"`
	BeneficiaryID string `json:"beneficiary_id"`
	Country       string `json:"country"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
	Purpose       string `json:"purpose"`
}

func (h *RemittanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req updateRemittanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	create := createRemittanceRequest{
		SenderID:        req.SenderID,
		BeneficiaryID:   req.BeneficiaryID,
		SenderCashierID: uuid.Nil.String(),
		Country:         req.Country,
		Amount:          req.Amount,
	}
	if fields := create.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	rem, err := h.remittances.Update(r.Context(), id, service.UpdateRemittanceInput{
		SenderID:      uuid.MustParse(req.SenderID),
		BeneficiaryID: uuid.MustParse(req.BeneficiaryID),
		Country:       req.Country,
		Amount:        amount,
		Reason:        req.Reason,
		Purpose:       req.Purpose,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}

func (h *RemittanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.remittances.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

func (h *RemittanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	rem, err := h.remittances.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTO(rem))
}

func (h *RemittanceHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")
	if reference == "" {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	result, err := h.remittances.GetByReference(r.Context(), reference)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dto := toRemittanceDTO(result.Remittance)
	dto.ReleaseNote = result.ReleaseNote
	RespondSuccess(w, http.StatusOK, dto)
}

// List doubles as search when any filter parameter is present.
func (h *RemittanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	from, fromErr := parseDateParam(q.Get("from"))
	to, toErr := parseDateParam(q.Get("to"))
	if fromErr != nil || toErr != nil {
		RespondValidationError(w, []FieldError{{Field: "from/to", Message: "must be YYYY-MM-DD"}})
		return
	}

	if query == "" && from == nil && to == nil {
		rems, err := h.remittances.List(r.Context(), 100)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		RespondSuccess(w, http.StatusOK, toRemittanceDTOs(rems))
		return
	}

	rems, err := h.remittances.Search(r.Context(), repository.SearchFilter{
		Query: query,
		From:  from,
		To:    to,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTOs(rems))
}

func (h *RemittanceHandler) ListByParty(w http.ResponseWriter, r *http.Request) {
	partyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	rems, err := h.remittances.ListByParty(r.Context(), partyID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRemittanceDTOs(rems))
}

func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
