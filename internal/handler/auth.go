package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/auth"
	"github.com/alawneh/eway-backoffice/internal/domain"
)

type loginService interface {
	Login(ctx context.Context, username, password string) (*domain.Cashier, error)
}

type AuthHandler struct {
	cashiers  loginService
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(cashiers loginService, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		cashiers:  cashiers,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token   string     `json:"token"`
	Cashier cashierDTO `json:"cashier"`
}

type cashierDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Department  string     `json:"department"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	Balance     string     `json:"balance"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func toCashierDTO(c *domain.Cashier) cashierDTO {
	return cashierDTO{
		ID:          c.ID,
		Username:    c.Username,
		Name:        c.Name,
		Email:       c.Email,
		Department:  c.Department,
		PhoneNumber: c.PhoneNumber,
		Role:        string(c.Role),
		IsActive:    c.IsActive,
		Balance:     c.Balance.StringFixed(2),
		LastLoginAt: c.LastLoginAt,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	cashier, err := h.cashiers.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(cashier.ID, cashier.Username, cashier.Role, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:   token,
		Cashier: toCashierDTO(cashier),
	})
}
