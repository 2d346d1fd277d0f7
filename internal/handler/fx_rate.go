package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/auth"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/service"
)

type fxRateService interface {
	List(ctx context.Context) ([]domain.FxRate, error)
	Create(ctx context.Context, in service.FxRateInput) (*domain.FxRate, error)
	Update(ctx context.Context, id uuid.UUID, in service.FxRateInput) (*domain.FxRate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FxRateHandler struct {
	rates fxRateService
}

func NewFxRateHandler(rates fxRateService) *FxRateHandler {
	return &FxRateHandler{rates: rates}
}

type fxRateDTO struct {
	ID             uuid.UUID  `json:"id"`
	Currency       string     `json:"currency"`
	BuyRate        string     `json:"buy_rate"`
	SellRate       string     `json:"sell_rate"`
	Notes          *string    `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt *time.Time `json:"last_modified_at"`
}

func toFxRateDTO(rate *domain.FxRate) fxRateDTO {
	return fxRateDTO{
		ID:             rate.ID,
		Currency:       rate.Currency,
		BuyRate:        rate.BuyRate.String(),
		SellRate:       rate.SellRate.String(),
		Notes:          rate.Notes,
		CreatedAt:      rate.CreatedAt,
		LastModifiedAt: rate.LastModifiedAt,
	}
}

type fxRateRequest struct {
	Currency string  `json:"currency"`
	BuyRate  string  `json:"buy_rate"`
	SellRate string  `json:"sell_rate"`
	Notes    *string `json:"notes"`
}

func (r fxRateRequest) parse(requireCurrency bool) (service.FxRateInput, []FieldError) {
	var errs []FieldError
	if requireCurrency && r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	buy, err := decimal.NewFromString(r.BuyRate)
	if err != nil {
		errs = append(errs, FieldError{Field: "buy_rate", Message: "must be a number"})
	}
	sell, err := decimal.NewFromString(r.SellRate)
	if err != nil {
		errs = append(errs, FieldError{Field: "sell_rate", Message: "must be a number"})
	}
	if len(errs) > 0 {
		return service.FxRateInput{}, errs
	}
	return service.FxRateInput{
		Currency: r.Currency,
		BuyRate:  buy,
		SellRate: sell,
		Notes:    r.Notes,
	}, nil
}

func (h *FxRateHandler) List(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]fxRateDTO, 0, len(rates))
	for i := range rates {
		dtos = append(dtos, toFxRateDTO(&rates[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *FxRateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req fxRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	in, fields := req.parse(true)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		in.CashierID = &claims.CashierID
	}

	rate, err := h.rates.Create(r.Context(), in)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toFxRateDTO(rate))
}

func (h *FxRateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req fxRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	in, fields := req.parse(false)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rate, err := h.rates.Update(r.Context(), id, in)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFxRateDTO(rate))
}

func (h *FxRateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.rates.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}
