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

type feeTierService interface {
	List(ctx context.Context) ([]domain.FeeTier, error)
	ListByCountry(ctx context.Context, country string) ([]domain.FeeTier, error)
	Create(ctx context.Context, in service.FeeTierInput) (*domain.FeeTier, error)
	Update(ctx context.Context, id uuid.UUID, in service.FeeTierInput) (*domain.FeeTier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type feeQuoteService interface {
	Resolve(ctx context.Context, rawCountry string, amount decimal.Decimal) (decimal.Decimal, error)
}

type FeeTierHandler struct {
	tiers  feeTierService
	quotes feeQuoteService
}

func NewFeeTierHandler(tiers feeTierService, quotes feeQuoteService) *FeeTierHandler {
	return &FeeTierHandler{tiers: tiers, quotes: quotes}
}

type feeTierDTO struct {
	ID        uuid.UUID `json:"id"`
	Country   string    `json:"country"`
	MinAmount string    `json:"min_amount"`
	MaxAmount *string   `json:"max_amount"`
	Fee       string    `json:"fee"`
	CreatedAt time.Time `json:"created_at"`
}

func toFeeTierDTO(t *domain.FeeTier) feeTierDTO {
	dto := feeTierDTO{
		ID:        t.ID,
		Country:   t.Country,
		MinAmount: t.MinAmount.StringFixed(2),
		Fee:       t.Fee.StringFixed(2),
		CreatedAt: t.CreatedAt,
	}
	if t.MaxAmount != nil {
		s := t.MaxAmount.StringFixed(2)
		dto.MaxAmount = &s
	}
	return dto
}

func toFeeTierDTOs(tiers []domain.FeeTier) []feeTierDTO {
	dtos := make([]feeTierDTO, 0, len(tiers))
	for i := range tiers {
		dtos = append(dtos, toFeeTierDTO(&tiers[i]))
	}
	return dtos
}

type feeTierRequest struct {
	Country   string  `json:"country"`
	MinAmount string  `json:"min_amount"`
	MaxAmount *string `json:"max_amount"`
	Fee       string  `json:"fee"`
}

func (r feeTierRequest) parse() (service.FeeTierInput, []FieldError) {
	var errs []FieldError
	if r.Country == "" {
		errs = append(errs, FieldError{Field: "country", Message: "required"})
	}
	min, err := decimal.NewFromString(r.MinAmount)
	if err != nil {
		errs = append(errs, FieldError{Field: "min_amount", Message: "must be a number"})
	}
	fee, err := decimal.NewFromString(r.Fee)
	if err != nil {
		errs = append(errs, FieldError{Field: "fee", Message: "must be a number"})
	}
	var max *decimal.Decimal
	if r.MaxAmount != nil {
		m, err := decimal.NewFromString(*r.MaxAmount)
		if err != nil {
			errs = append(errs, FieldError{Field: "max_amount", Message: "must be a number"})
		} else {
			max = &m
		}
	}
	if len(errs) > 0 {
		return service.FeeTierInput{}, errs
	}
	return service.FeeTierInput{
		Country:   r.Country,
		MinAmount: min,
		MaxAmount: max,
		Fee:       fee,
	}, nil
}

func (h *FeeTierHandler) List(w http.ResponseWriter, r *http.Request) {
	if country := r.URL.Query().Get("country"); country != "" {
		tiers, err := h.tiers.ListByCountry(r.Context(), country)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		RespondSuccess(w, http.StatusOK, toFeeTierDTOs(tiers))
		return
	}

	tiers, err := h.tiers.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFeeTierDTOs(tiers))
}

func (h *FeeTierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req feeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	in, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	tier, err := h.tiers.Create(r.Context(), in)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toFeeTierDTO(tier))
}

func (h *FeeTierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req feeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	in, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	tier, err := h.tiers.Update(r.Context(), id, in)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFeeTierDTO(tier))
}

func (h *FeeTierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.tiers.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

// Quote answers "what would this transfer cost" without creating anything.
func (h *FeeTierHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be a number"}})
		return
	}

	fee, err := h.quotes.Resolve(r.Context(), country, amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{
		"country": country,
		"amount":  amount.StringFixed(2),
		"fee":     fee.StringFixed(2),
	})
}
