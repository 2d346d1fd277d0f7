package domain

import (
	"time"

	"github.com/google/uuid"
)

type PartyType string

const (
	PartyTypeSender      PartyType = "sender"
	PartyTypeBeneficiary PartyType = "beneficiary"
)

// Party is a sender or beneficiary individual identified by a national ID.
// Parties carry no balance; money only moves through cashier tills.
type Party struct {
	ID             uuid.UUID
	NationalID     string
	NameAr         string
	NameEn         string
	PhoneNumber    string
	BirthDate      time.Time
	Address        string
	Type           PartyType
	CreatedAt      time.Time
	LastModifiedAt *time.Time
}
