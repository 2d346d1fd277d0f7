package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExchangeType string

const (
	// ExchangeBuy: the till buys foreign currency from the customer and
	// pays out dinars.
	ExchangeBuy ExchangeType = "buy"
	// ExchangeSell: the till sells foreign currency to the customer and
	// takes in dinars.
	ExchangeSell ExchangeType = "sell"
)

type CurrencyExchange struct {
	ID                 uuid.UUID
	Reference          string
	Type               ExchangeType
	Currency           string
	ForeignAmount      decimal.Decimal
	ExchangeRate       decimal.Decimal
	JodAmount          decimal.Decimal
	Profit             decimal.Decimal
	CustomerNationalID *string
	CustomerName       *string
	CustomerPhone      *string
	CashierID          uuid.UUID
	Country            *string
	Notes              *string
	CreatedAt          time.Time
}

// FxRate is the posted buy/sell rate for one currency against the dinar.
// Buy must stay strictly below sell.
type FxRate struct {
	ID             uuid.UUID
	Currency       string
	BuyRate        decimal.Decimal
	SellRate       decimal.Decimal
	Notes          *string
	CashierID      *uuid.UUID
	CreatedAt      time.Time
	LastModifiedAt *time.Time
}
