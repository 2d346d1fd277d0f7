package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChangeRequestType string

const (
	ChangeRequestReturnToPending ChangeRequestType = "return_to_pending"
	ChangeRequestUpdateDetails   ChangeRequestType = "update_details"
)

type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// ReleaseNotePrefix tags change-request notes written by a compliance
// release so they can be surfaced in audit views.
const ReleaseNotePrefix = "[Release]"

// ChangeRequest is a proposed mutation to a remittance. Proposed fields are
// optional; on an update_details approval only the present ones are applied.
type ChangeRequest struct {
	ID              uuid.UUID
	RemittanceID    uuid.UUID
	RequestType     ChangeRequestType
	Notes           *string
	ProposedCountry *string
	ProposedAmount  *decimal.Decimal
	ProposedReason  *string
	ProposedPurpose *string
	Status          ChangeRequestStatus
	CreatedAt       time.Time
	ApprovedAt      *time.Time
}
