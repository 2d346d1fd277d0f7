package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type fxRateStore interface {
	List(ctx context.Context) ([]domain.FxRate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FxRate, error)
	GetByCurrency(ctx context.Context, currency string) (*domain.FxRate, error)
	Create(ctx context.Context, rate *domain.FxRate) error
	Update(ctx context.Context, rate *domain.FxRate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type FxRateService struct {
	rates fxRateStore
}

func NewFxRateService(rates fxRateStore) *FxRateService {
	return &FxRateService{rates: rates}
}

type FxRateInput struct {
	Currency  string
	BuyRate   decimal.Decimal
	SellRate  decimal.Decimal
	Notes     *string
	CashierID *uuid.UUID
}

func (s *FxRateService) Create(ctx context.Context, in FxRateInput) (*domain.FxRate, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRequest)
	}
	if err := validateRates(in.BuyRate, in.SellRate); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	rate := &domain.FxRate{
		ID:        uuid.New(),
		Currency:  currency,
		BuyRate:   in.BuyRate,
		SellRate:  in.SellRate,
		Notes:     in.Notes,
		CashierID: in.CashierID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.rates.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return rate, nil
}

func (s *FxRateService) Update(ctx context.Context, id uuid.UUID, in FxRateInput) (*domain.FxRate, error) {
	if err := validateRates(in.BuyRate, in.SellRate); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	rate, err := s.rates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	now := time.Now().UTC()
	rate.BuyRate = in.BuyRate
	rate.SellRate = in.SellRate
	rate.Notes = in.Notes
	rate.LastModifiedAt = &now

	if err := s.rates.Update(ctx, rate); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return rate, nil
}

func (s *FxRateService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rates.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *FxRateService) List(ctx context.Context) ([]domain.FxRate, error) {
	return s.rates.List(ctx)
}

func (s *FxRateService) GetByCurrency(ctx context.Context, currency string) (*domain.FxRate, error) {
	return s.rates.GetByCurrency(ctx, currency)
}

// validateRates enforces the posted-rate invariant: buy strictly below sell,
// both positive.
func validateRates(buy, sell decimal.Decimal) error {
	if !buy.IsPositive() || !sell.IsPositive() || buy.GreaterThanOrEqual(sell) {
		return domain.ErrInvalidRate
	}
	return nil
}
