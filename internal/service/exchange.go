package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/logging"
	"github.com/alawneh/eway-backoffice/internal/repository"
)

type exchangeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CurrencyExchange, error)
	Create(ctx context.Context, tx *sql.Tx, e *domain.CurrencyExchange) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	Search(ctx context.Context, f repository.ExchangeFilter) ([]domain.CurrencyExchange, error)
	Statistics(ctx context.Context, from, to *time.Time) ([]repository.CurrencyStat, error)
}

type exchangeLedger interface {
	ApplyExchange(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, typ domain.ExchangeType, jodAmount decimal.Decimal) error
	RevertExchange(ctx context.Context, tx *sql.Tx, cashierID uuid.UUID, typ domain.ExchangeType, jodAmount decimal.Decimal) error
}

type ExchangeService struct {
	db        *sql.DB
	exchanges exchangeStore
	cashiers  cashierChecker
	ledger    exchangeLedger
}

func NewExchangeService(db *sql.DB, exchanges exchangeStore, cashiers cashierChecker, ledger exchangeLedger) *ExchangeService {
	return &ExchangeService{db: db, exchanges: exchanges, cashiers: cashiers, ledger: ledger}
}

type CreateExchangeInput struct {
	CashierID          uuid.UUID
	Type               domain.ExchangeType
	Currency           string
	ForeignAmount      decimal.Decimal
	ExchangeRate       decimal.Decimal
	Profit             decimal.Decimal
	CustomerNationalID *string
	CustomerName       *string
	CustomerPhone      *string
	Country            *string
	Notes              *string
}

// Create books an exchange and moves the dinar side through the cashier's
// till in the same transaction. JodAmount is derived, never client-supplied.
func (s *ExchangeService) Create(ctx context.Context, in CreateExchangeInput) (*domain.CurrencyExchange, error) {
	log := logging.FromContext(ctx)

	if in.Type != domain.ExchangeBuy && in.Type != domain.ExchangeSell {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRequest)
	}
	if !in.ForeignAmount.IsPositive() {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidAmount)
	}
	if !in.ExchangeRate.IsPositive() {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRate)
	}

	cashier, err := s.cashiers.GetByID(ctx, in.CashierID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if !cashier.IsActive {
		return nil, fmt.Errorf("Create: %w", domain.ErrCashierInactive)
	}

	now := time.Now().UTC()
	e := &domain.CurrencyExchange{
		ID:                 uuid.New(),
		Reference:          domain.NewReference(domain.ReferencePrefixExchange, now),
		Type:               in.Type,
		Currency:           strings.ToUpper(strings.TrimSpace(in.Currency)),
		ForeignAmount:      in.ForeignAmount,
		ExchangeRate:       in.ExchangeRate,
		JodAmount:          in.ForeignAmount.Mul(in.ExchangeRate).Round(2),
		Profit:             in.Profit,
		CustomerNationalID: in.CustomerNationalID,
		CustomerName:       in.CustomerName,
		CustomerPhone:      in.CustomerPhone,
		CashierID:          in.CashierID,
		Country:            in.Country,
		Notes:              in.Notes,
		CreatedAt:          now,
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ledger.ApplyExchange(ctx, tx, in.CashierID, in.Type, e.JodAmount); err != nil {
			return err
		}
		return s.exchanges.Create(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("currency exchange created",
		"exchange_id", e.ID,
		"reference", e.Reference,
		"type", e.Type,
		"currency", e.Currency,
		"jod_amount", e.JodAmount,
	)
	return e, nil
}

// Delete removes the exchange and applies the exact inverse of its original
// till adjustment.
func (s *ExchangeService) Delete(ctx context.Context, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	e, err := s.exchanges.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.exchanges.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.ledger.RevertExchange(ctx, tx, e.CashierID, e.Type, e.JodAmount)
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	log.Info("currency exchange deleted", "exchange_id", id, "reference", e.Reference)
	return nil
}

func (s *ExchangeService) Get(ctx context.Context, id uuid.UUID) (*domain.CurrencyExchange, error) {
	return s.exchanges.GetByID(ctx, id)
}

func (s *ExchangeService) Search(ctx context.Context, f repository.ExchangeFilter) ([]domain.CurrencyExchange, error) {
	return s.exchanges.Search(ctx, f)
}

func (s *ExchangeService) Statistics(ctx context.Context, from, to *time.Time) ([]repository.CurrencyStat, error) {
	return s.exchanges.Statistics(ctx, from, to)
}
