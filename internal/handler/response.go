package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrPartyNotFound):
		appErr = ErrPartyNotFound
	case errors.Is(err, domain.ErrCashierNotFound):
		appErr = ErrCashierNotFound
	case errors.Is(err, domain.ErrCashierInactive):
		appErr = ErrCashierInactive
	case errors.Is(err, domain.ErrInsufficientBalance):
		appErr = ErrInsufficientBalance
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidCountry):
		appErr = ErrInvalidCountry
	case errors.Is(err, domain.ErrInvalidTierRange):
		appErr = ErrInvalidTierRange
	case errors.Is(err, domain.ErrTierOverlap):
		appErr = ErrTierOverlap
	case errors.Is(err, domain.ErrComplianceHold):
		appErr = ErrComplianceHold
	case errors.Is(err, domain.ErrNotOnHold):
		appErr = ErrNotOnHold
	case errors.Is(err, domain.ErrInvalidTransition):
		appErr = ErrInvalidTransition
	case errors.Is(err, domain.ErrRequestNotPending):
		appErr = ErrRequestNotPending
	case errors.Is(err, domain.ErrHasChangeRequests):
		appErr = ErrHasChangeRequests
	case errors.Is(err, domain.ErrPartyInUse):
		appErr = ErrPartyInUse
	case errors.Is(err, domain.ErrInvalidCredentials):
		appErr = ErrInvalidCredentials
	case errors.Is(err, domain.ErrUsernameTaken):
		appErr = ErrUsernameTaken
	case errors.Is(err, domain.ErrAdminImmutable):
		appErr = ErrAdminImmutable
	case errors.Is(err, domain.ErrRateExists):
		appErr = ErrRateExists
	case errors.Is(err, domain.ErrInvalidRate):
		appErr = ErrInvalidRate
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}
