package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/internal/country"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/fees"
)

type feeTierStore interface {
	ListByCountry(ctx context.Context, country string) ([]domain.FeeTier, error)
	ListAll(ctx context.Context) ([]domain.FeeTier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeTier, error)
	Create(ctx context.Context, t *domain.FeeTier) error
	Update(ctx context.Context, t *domain.FeeTier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type FeeTierService struct {
	tiers feeTierStore
}

func NewFeeTierService(tiers feeTierStore) *FeeTierService {
	return &FeeTierService{tiers: tiers}
}

type FeeTierInput struct {
	Country   string
	MinAmount decimal.Decimal
	MaxAmount *decimal.Decimal
	Fee       decimal.Decimal
}

func (s *FeeTierService) Create(ctx context.Context, in FeeTierInput) (*domain.FeeTier, error) {
	canonical := country.Normalize(in.Country)
	if canonical == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidCountry)
	}

	t := &domain.FeeTier{
		ID:        uuid.New(),
		Country:   canonical,
		MinAmount: in.MinAmount,
		MaxAmount: in.MaxAmount,
		Fee:       in.Fee,
		CreatedAt: time.Now().UTC(),
	}

	siblings, err := s.tiers.ListByCountry(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := fees.ValidateTier(*t, siblings); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := s.tiers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return t, nil
}

func (s *FeeTierService) Update(ctx context.Context, id uuid.UUID, in FeeTierInput) (*domain.FeeTier, error) {
	canonical := country.Normalize(in.Country)
	if canonical == "" {
		return nil, fmt.Errorf("Update: %w", domain.ErrInvalidCountry)
	}

	t, err := s.tiers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	t.Country = canonical
	t.MinAmount = in.MinAmount
	t.MaxAmount = in.MaxAmount
	t.Fee = in.Fee

	all, err := s.tiers.ListByCountry(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	siblings := all[:0:0]
	for _, sib := range all {
		if sib.ID != id {
			siblings = append(siblings, sib)
		}
	}
	if err := fees.ValidateTier(*t, siblings); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if err := s.tiers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return t, nil
}

func (s *FeeTierService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tiers.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *FeeTierService) List(ctx context.Context) ([]domain.FeeTier, error) {
	return s.tiers.ListAll(ctx)
}

func (s *FeeTierService) ListByCountry(ctx context.Context, rawCountry string) ([]domain.FeeTier, error) {
	canonical := country.Normalize(rawCountry)
	if canonical == "" {
		return nil, fmt.Errorf("ListByCountry: %w", domain.ErrInvalidCountry)
	}
	return s.tiers.ListByCountry(ctx, canonical)
}
