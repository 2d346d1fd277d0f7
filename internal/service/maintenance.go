package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alawneh/eway-backoffice/internal/country"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/logging"
)

type maintenanceTierStore interface {
	ListAll(ctx context.Context) ([]domain.FeeTier, error)
	UpdateCountry(ctx context.Context, id uuid.UUID, country string) error
}

type maintenanceCashierStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Cashier, error)
	Create(ctx context.Context, c *domain.Cashier) error
}

// Maintenance runs the startup housekeeping passes. Every step tolerates
// storage errors: the process logs and moves on rather than refusing to boot.
type Maintenance struct {
	tiers         maintenanceTierStore
	cashiers      maintenanceCashierStore
	adminUsername string
	adminPassword string
}

func NewMaintenance(tiers maintenanceTierStore, cashiers maintenanceCashierStore, adminUsername, adminPassword string) *Maintenance {
	return &Maintenance{
		tiers:         tiers,
		cashiers:      cashiers,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
	}
}

func (m *Maintenance) Run(ctx context.Context) {
	m.normalizeTierCountries(ctx)
	m.seedAdmin(ctx)
}

// normalizeTierCountries rewrites legacy country labels (Arabic spellings,
// aliases) on stored fee tiers to their canonical form so lookups by
// normalized country keep matching.
func (m *Maintenance) normalizeTierCountries(ctx context.Context) {
	log := logging.FromContext(ctx)

	tiers, err := m.tiers.ListAll(ctx)
	if err != nil {
		log.Warn("country normalization skipped", "error", err)
		return
	}

	var fixed int
	for _, t := range tiers {
		canonical := country.Normalize(t.Country)
		if canonical == "" || canonical == t.Country {
			continue
		}
		if err := m.tiers.UpdateCountry(ctx, t.ID, canonical); err != nil {
			log.Warn("failed to normalize tier country",
				"tier_id", t.ID, "country", t.Country, "error", err)
			continue
		}
		fixed++
	}
	if fixed > 0 {
		log.Info("fee tier countries normalized", "count", fixed)
	}
}

func (m *Maintenance) seedAdmin(ctx context.Context) {
	log := logging.FromContext(ctx)

	_, err := m.cashiers.GetByUsername(ctx, m.adminUsername)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrCashierNotFound) {
		log.Warn("admin seed check failed", "error", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(m.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Warn("admin seed failed", "error", err)
		return
	}
	admin := &domain.Cashier{
		ID:           uuid.New(),
		Username:     m.adminUsername,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.cashiers.Create(ctx, admin); err != nil {
		log.Warn("admin seed failed", "error", err)
		return
	}
	log.Info("default admin cashier seeded", "username", m.adminUsername)
}
