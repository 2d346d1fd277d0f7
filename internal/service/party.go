package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type partyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Party, error)
	Create(ctx context.Context, p *domain.Party) error
	Update(ctx context.Context, p *domain.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string) ([]domain.Party, error)
}

type partyRemittanceCounter interface {
	CountByParty(ctx context.Context, partyID uuid.UUID) (int, error)
}

type PartyService struct {
	parties     partyStore
	remittances partyRemittanceCounter
}

func NewPartyService(parties partyStore, remittances partyRemittanceCounter) *PartyService {
	return &PartyService{parties: parties, remittances: remittances}
}

type PartyInput struct {
	NationalID  string
	NameAr      string
	NameEn      string
	PhoneNumber string
	BirthDate   time.Time
	Address     string
	Type        domain.PartyType
}

func (s *PartyService) Create(ctx context.Context, in PartyInput) (*domain.Party, error) {
	if in.NationalID == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRequest)
	}
	if in.Type != domain.PartyTypeSender && in.Type != domain.PartyTypeBeneficiary {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRequest)
	}

	p := &domain.Party{
		ID:          uuid.New(),
		NationalID:  in.NationalID,
		NameAr:      in.NameAr,
		NameEn:      in.NameEn,
		PhoneNumber: in.PhoneNumber,
		BirthDate:   in.BirthDate,
		Address:     in.Address,
		Type:        in.Type,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.parties.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return p, nil
}

func (s *PartyService) Update(ctx context.Context, id uuid.UUID, in PartyInput) (*domain.Party, error) {
	if in.NationalID == "" {
		return nil, fmt.Errorf("Update: %w", domain.ErrInvalidRequest)
	}

	p, err := s.parties.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	p.NationalID = in.NationalID
	p.NameAr = in.NameAr
	p.NameEn = in.NameEn
	p.PhoneNumber = in.PhoneNumber
	p.BirthDate = in.BirthDate
	p.Address = in.Address
	if in.Type != "" {
		p.Type = in.Type
	}

	if err := s.parties.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return p, nil
}

// Delete refuses while any remittance still references the party; the
// transfer history would otherwise lose its endpoints.
func (s *PartyService) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.remittances.CountByParty(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("Delete: %w", domain.ErrPartyInUse)
	}
	if err := s.parties.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *PartyService) Get(ctx context.Context, id uuid.UUID) (*domain.Party, error) {
	return s.parties.GetByID(ctx, id)
}

func (s *PartyService) Search(ctx context.Context, q string) ([]domain.Party, error) {
	return s.parties.Search(ctx, q)
}
