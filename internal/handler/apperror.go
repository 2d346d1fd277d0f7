package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrPartyNotFound       = &AppError{http.StatusUnprocessableEntity, "PARTY_NOT_FOUND", "Sender or beneficiary not found"}
	ErrCashierNotFound     = &AppError{http.StatusUnprocessableEntity, "CASHIER_NOT_FOUND", "Cashier not found"}
	ErrCashierInactive     = &AppError{http.StatusUnprocessableEntity, "CASHIER_INACTIVE", "Cashier is deactivated"}
	ErrInsufficientBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Cashier balance insufficient for payout"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidCountry      = &AppError{http.StatusBadRequest, "INVALID_COUNTRY", "Country is required"}
	ErrInvalidTierRange    = &AppError{http.StatusBadRequest, "INVALID_TIER_RANGE", "Tier range is invalid"}
	ErrTierOverlap         = &AppError{http.StatusConflict, "TIER_OVERLAP", "Tier overlaps an existing tier for the same country"}
	ErrComplianceHold      = &AppError{http.StatusUnprocessableEntity, "COMPLIANCE_HOLD", "Operation held for compliance review"}
	ErrNotOnHold           = &AppError{http.StatusUnprocessableEntity, "NOT_ON_HOLD", "Remittance is not on compliance hold"}
	ErrInvalidTransition   = &AppError{http.StatusUnprocessableEntity, "INVALID_TRANSITION", "Status transition not allowed"}
	ErrRequestNotPending   = &AppError{http.StatusUnprocessableEntity, "REQUEST_NOT_PENDING", "Change request is not pending"}
	ErrHasChangeRequests   = &AppError{http.StatusConflict, "HAS_CHANGE_REQUESTS", "Remittance has change requests and cannot be deleted"}
	ErrPartyInUse          = &AppError{http.StatusConflict, "PARTY_IN_USE", "Party is referenced by remittances and cannot be deleted"}
	ErrUsernameTaken       = &AppError{http.StatusConflict, "USERNAME_TAKEN", "Username already exists"}
	ErrAdminImmutable      = &AppError{http.StatusUnprocessableEntity, "ADMIN_IMMUTABLE", "Admin account cannot be modified"}
	ErrRateExists          = &AppError{http.StatusConflict, "RATE_EXISTS", "Rate already exists for this currency"}
	ErrInvalidRate         = &AppError{http.StatusBadRequest, "INVALID_RATE", "Buy rate must be positive and below sell rate"}
)
