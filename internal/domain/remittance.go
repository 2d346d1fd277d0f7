package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RemittanceStatus is a closed set; transitions go through the guard
// functions below rather than free-form assignment.
type RemittanceStatus string

const (
	StatusPaymentPending  RemittanceStatus = "Payment pending"
	StatusComplianceHold  RemittanceStatus = "Compliance Hold"
	StatusPendingApproval RemittanceStatus = "Pending Approval"
	StatusPaid            RemittanceStatus = "Paid"
)

// CanMarkPaid reports whether a payout may be attempted from this status.
// Paid itself is excluded; a paid remittance must be returned first.
func (s RemittanceStatus) CanMarkPaid() bool {
	return s == StatusPaymentPending || s == StatusComplianceHold
}

// CanRelease reports whether a compliance release applies.
func (s RemittanceStatus) CanRelease() bool {
	return s == StatusComplianceHold
}

type Remittance struct {
	ID                uuid.UUID
	Reference         string
	SenderID          uuid.UUID
	BeneficiaryID     uuid.UUID
	SenderCashierID   *uuid.UUID
	ReceiverCashierID *uuid.UUID
	Country           string
	Amount            decimal.Decimal
	Fee               decimal.Decimal
	Reason            string
	Purpose           string
	Status            RemittanceStatus
	CreatedAt         time.Time
	PaidAt            *time.Time
}
