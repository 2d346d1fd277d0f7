package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrPartyNotFound       = errors.New("sender or beneficiary not found")
	ErrCashierNotFound     = errors.New("cashier not found")
	ErrCashierInactive     = errors.New("cashier is deactivated")
	ErrInsufficientBalance = errors.New("cashier balance insufficient for payout")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCountry      = errors.New("country is required")
	ErrInvalidTierRange    = errors.New("tier range is invalid")
	ErrTierOverlap         = errors.New("tier overlaps an existing tier for the same country")
	ErrComplianceHold      = errors.New("operation held for compliance review")
	ErrNotOnHold           = errors.New("remittance is not on compliance hold")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrRequestNotPending   = errors.New("change request is not pending")
	ErrHasChangeRequests   = errors.New("remittance has change requests and cannot be deleted")
	ErrPartyInUse          = errors.New("party is referenced by remittances and cannot be deleted")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrAdminImmutable      = errors.New("admin account cannot be modified")
	ErrRateExists          = errors.New("rate already exists for this currency")
	ErrInvalidRate         = errors.New("buy rate must be positive and below sell rate")
	ErrInvalidRequest      = errors.New("invalid request")
)
