package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/service"
)

type cashierService interface {
	Create(ctx context.Context, in service.CreateCashierInput) (*domain.Cashier, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Cashier, error)
	List(ctx context.Context) ([]domain.Cashier, error)
	AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Cashier, error)
	SetInitialBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Cashier, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role, department string) (*domain.Cashier, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Cashier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CashierHandler struct {
	cashiers cashierService
}

func NewCashierHandler(cashiers cashierService) *CashierHandler {
	return &CashierHandler{cashiers: cashiers}
}

type createCashierRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
}

func (r createCashierRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if len(r.Password) < 6 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	return errs
}

func (h *CashierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCashierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	cashier, err := h.cashiers.Create(r.Context(), service.CreateCashierInput{
		Username:    req.Username,
		Password:    req.Password,
		Name:        req.Name,
		Email:       req.Email,
		Department:  req.Department,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toCashierDTO(cashier))
}

func (h *CashierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	cashier, err := h.cashiers.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCashierDTO(cashier))
}

func (h *CashierHandler) List(w http.ResponseWriter, r *http.Request) {
	cashiers, err := h.cashiers.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]cashierDTO, 0, len(cashiers))
	for i := range cashiers {
		dtos = append(dtos, toCashierDTO(&cashiers[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type balanceRequest struct {
	Amount string `json:"amount"`
}

func (h *CashierHandler) AddBalance(w http.ResponseWriter, r *http.Request) {
	h.adjustBalance(w, r, h.cashiers.AddBalance)
}

func (h *CashierHandler) SetInitialBalance(w http.ResponseWriter, r *http.Request) {
	h.adjustBalance(w, r, h.cashiers.SetInitialBalance)
}

func (h *CashierHandler) adjustBalance(w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID, decimal.Decimal) (*domain.Cashier, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be a number"}})
		return
	}

	cashier, err := apply(r.Context(), id, amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCashierDTO(cashier))
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (h *CashierHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if len(req.NewPassword) < 6 {
		RespondValidationError(w, []FieldError{{Field: "new_password", Message: "must be at least 6 characters"}})
		return
	}

	if err := h.cashiers.ChangePassword(r.Context(), id, req.NewPassword); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

type updateRoleRequest struct {
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (h *CashierHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	cashier, err := h.cashiers.UpdateRole(r.Context(), id, req.Role, req.Department)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCashierDTO(cashier))
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *CashierHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	cashier, err := h.cashiers.SetActive(r.Context(), id, req.IsActive)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCashierDTO(cashier))
}

func (h *CashierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if err := h.cashiers.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}
