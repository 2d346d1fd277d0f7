package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/service"
)

type partyService interface {
	Create(ctx context.Context, in service.PartyInput) (*domain.Party, error)
	Update(ctx context.Context, id uuid.UUID, in service.PartyInput) (*domain.Party, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Party, error)
	Search(ctx context.Context, q string) ([]domain.Party, error)
}

type PartyHandler struct {
	parties partyService
}

func NewPartyHandler(parties partyService) *PartyHandler {
	return &PartyHandler{parties: parties}
}

type partyDTO struct {
	ID             uuid.UUID  `json:"id"`
	NationalID     string     `json:"national_id"`
	NameAr         string     `json:"name_ar"`
	NameEn         string     `json:"name_en"`
	PhoneNumber    string     `json:"phone_number"`
	BirthDate      time.Time  `json:"birth_date"`
	Address        string     `json:"address"`
	Type           string     `json:"type"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt *time.Time `json:"last_modified_at"`
}

func toPartyDTO(p *domain.Party) partyDTO {
	return partyDTO{
		ID:             p.ID,
		NationalID:     p.NationalID,
		NameAr:         p.NameAr,
		NameEn:         p.NameEn,
		PhoneNumber:    p.PhoneNumber,
		BirthDate:      p.BirthDate,
		Address:        p.Address,
		Type:           string(p.Type),
		CreatedAt:      p.CreatedAt,
		LastModifiedAt: p.LastModifiedAt,
	}
}

type partyRequest struct {
	NationalID  string    `json:"national_id"`
	NameAr      string    `json:"name_ar"`
	NameEn      string    `json:"name_en"`
	PhoneNumber string    `json:"phone_number"`
	BirthDate   time.Time `json:"birth_date"`
	Address     string    `json:"address"`
	Type        string    `json:"type"`
}

func (r partyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.NationalID == "" {
		errs = append(errs, FieldError{Field: "national_id", Message: "required"})
	}
	if r.NameAr == "" && r.NameEn == "" {
		errs = append(errs, FieldError{Field: "name_ar", Message: "at least one name is required"})
	}
	switch domain.PartyType(r.Type) {
	case domain.PartyTypeSender, domain.PartyTypeBeneficiary:
	default:
		errs = append(errs, FieldError{Field: "type", Message: "must be sender or beneficiary"})
	}
	return errs
}

func (r partyRequest) toInput() service.PartyInput {
	return service.PartyInput{
		NationalID:  r.NationalID,
		NameAr:      r.NameAr,
		NameEn:      r.NameEn,
		PhoneNumber: r.PhoneNumber,
		BirthDate:   r.BirthDate,
		Address:     r.Address,
		Type:        domain.PartyType(r.Type),
	}
}

func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.parties.Create(r.Context(), req.toInput())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toPartyDTO(p))
}

func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.parties.Update(r.Context(), id, req.toInput())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPartyDTO(p))
}

func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.parties.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	p, err := h.parties.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toPartyDTO(p))
}

func (h *PartyHandler) Search(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]partyDTO, 0, len(parties))
	for i := range parties {
		dtos = append(dtos, toPartyDTO(&parties[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
