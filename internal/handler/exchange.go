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

type exchangeService interface {
	Create(ctx context.Context, in service.CreateExchangeInput) (*domain.CurrencyExchange, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.CurrencyExchange, error)
	Search(ctx context.Context, f repository.ExchangeFilter) ([]domain.CurrencyExchange, error)
	Statistics(ctx context.Context, from, to *time.Time) ([]repository.CurrencyStat, error)
}

type ExchangeHandler struct {
	exchanges exchangeService
}

func NewExchangeHandler(exchanges exchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges}
}

type exchangeDTO struct {
	ID                 uuid.UUID `json:"id"`
	Reference          string    `json:"reference"`
	Type               string    `json:"type"`
	Currency           string    `json:"currency"`
	ForeignAmount      string    `json:"foreign_amount"`
	ExchangeRate       string    `json:"exchange_rate"`
	JodAmount          string    `json:"jod_amount"`
	Profit             string    `json:"profit"`
	CustomerNationalID *string   `json:"customer_national_id"`
	CustomerName       *string   `json:"customer_name"`
	CustomerPhone      *string   `json:"customer_phone"`
	CashierID          uuid.UUID `json:"cashier_id"`
	Country            *string   `json:"country"`
	Notes              *string   `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
}

func toExchangeDTO(e *domain.CurrencyExchange) exchangeDTO {
	return exchangeDTO{
		ID:                 e.ID,
		Reference:          e.Reference,
		Type:               string(e.Type),
		Currency:           e.Currency,
		ForeignAmount:      e.ForeignAmount.StringFixed(2),
		ExchangeRate:       e.ExchangeRate.String(),
		JodAmount:          e.JodAmount.StringFixed(2),
		Profit:             e.Profit.StringFixed(2),
		CustomerNationalID: e.CustomerNationalID,
		CustomerName:       e.CustomerName,
		CustomerPhone:      e.CustomerPhone,
		CashierID:          e.CashierID,
		Country:            e.Country,
		Notes:              e.Notes,
		CreatedAt:          e.CreatedAt,
	}
}

type createExchangeRequest struct {
	CashierID          string  `json:"cashier_id"`
	Type               string  `json:"type"`
	Currency           string  `json:"currency"`
	ForeignAmount      string  `json:"foreign_amount"`
	ExchangeRate       string  `json:"exchange_rate"`
	Profit             string  `json:"profit"`
	CustomerNationalID *string `json:"customer_national_id"`
	CustomerName       *string `json:"customer_name"`
	CustomerPhone      *string `json:"customer_phone"`
	Country            *string `json:"country"`
	Notes              *string `json:"notes"`
}

func (r createExchangeRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.CashierID); err != nil {
		errs = append(errs, FieldError{Field: "cashier_id", Message: "must be a valid UUID"})
	}
	switch domain.ExchangeType(r.Type) {
	case domain.ExchangeBuy, domain.ExchangeSell:
	default:
		errs = append(errs, FieldError{Field: "type", Message: "must be buy or sell"})
	}
	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	if amount, err := decimal.NewFromString(r.ForeignAmount); err != nil || !amount.IsPositive() {
		errs = append(errs, FieldError{Field: "foreign_amount", Message: "must be a number greater than 0"})
	}
	if rate, err := decimal.NewFromString(r.ExchangeRate); err != nil || !rate.IsPositive() {
		errs = append(errs, FieldError{Field: "exchange_rate", Message: "must be a number greater than 0"})
	}
	return errs
}

func (h *ExchangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	foreignAmount, _ := decimal.NewFromString(req.ForeignAmount)
	rate, _ := decimal.NewFromString(req.ExchangeRate)
	profit := decimal.Zero
	if req.Profit != "" {
		p, err := decimal.NewFromString(req.Profit)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "profit", Message: "must be a number"}})
			return
		}
		profit = p
	}

	e, err := h.exchanges.Create(r.Context(), service.CreateExchangeInput{
		CashierID:          uuid.MustParse(req.CashierID),
		Type:               domain.ExchangeType(req.Type),
		Currency:           req.Currency,
		ForeignAmount:      foreignAmount,
		ExchangeRate:       rate,
		Profit:             profit,
		CustomerNationalID: req.CustomerNationalID,
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		Country:            req.Country,
		Notes:              req.Notes,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toExchangeDTO(e))
}

func (h *ExchangeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.exchanges.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

func (h *ExchangeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	e, err := h.exchanges.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExchangeDTO(e))
}

func (h *ExchangeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, fromErr := parseDateParam(q.Get("from"))
	to, toErr := parseDateParam(q.Get("to"))
	if fromErr != nil || toErr != nil {
		RespondValidationError(w, []FieldError{{Field: "from/to", Message: "must be YYYY-MM-DD"}})
		return
	}

	exchanges, err := h.exchanges.Search(r.Context(), repository.ExchangeFilter{
		Query:    q.Get("q"),
		Currency: q.Get("currency"),
		Type:     domain.ExchangeType(q.Get("type")),
		From:     from,
		To:       to,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]exchangeDTO, 0, len(exchanges))
	for i := range exchanges {
		dtos = append(dtos, toExchangeDTO(&exchanges[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type currencyStatDTO struct {
	Currency    string `json:"currency"`
	BuyCount    int    `json:"buy_count"`
	BuyForeign  string `json:"buy_foreign"`
	BuyJod      string `json:"buy_jod"`
	SellCount   int    `json:"sell_count"`
	SellForeign string `json:"sell_foreign"`
	SellJod     string `json:"sell_jod"`
	Profit      string `json:"profit"`
}

func (h *ExchangeHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, fromErr := parseDateParam(q.Get("from"))
	to, toErr := parseDateParam(q.Get("to"))
	if fromErr != nil || toErr != nil {
		RespondValidationError(w, []FieldError{{Field: "from/to", Message: "must be YYYY-MM-DD"}})
		return
	}

	stats, err := h.exchanges.Statistics(r.Context(), from, to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]currencyStatDTO, 0, len(stats))
	for _, s := range stats {
		dtos = append(dtos, currencyStatDTO{
			Currency:    s.Currency,
			BuyCount:    s.BuyCount,
			BuyForeign:  s.BuyForeign.StringFixed(2),
			BuyJod:      s.BuyJod.StringFixed(2),
			SellCount:   s.SellCount,
			SellForeign: s.SellForeign.StringFixed(2),
			SellJod:     s.SellJod.StringFixed(2),
			Profit:      s.Profit.StringFixed(2),
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
