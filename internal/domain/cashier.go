package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleUser       Role = "User"
	RoleCompliance Role = "Compliance"
)

// ParseRole maps free-form input onto a known role, defaulting to User.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCompliance:
		return RoleCompliance
	default:
		return RoleUser
	}
}

// Cashier is an operator with a till. Balance is mutated only by the ledger
// rules and the explicit admin balance actions; everything else reads it.
type Cashier struct {
	ID                uuid.UUID
	Username          string
	PasswordHash      string
	Name              string
	Email             string
	Department        string
	PhoneNumber       string
	Role              Role
	IsActive          bool
	Balance           decimal.Decimal
	InitialBalance    decimal.Decimal
	LastBalanceUpdate *time.Time
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}
