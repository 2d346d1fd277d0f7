package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/logging"
	"github.com/alawneh/eway-backoffice/internal/repository"
)

type cashierStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cashier, error)
	GetByUsername(ctx context.Context, username string) (*domain.Cashier, error)
	List(ctx context.Context) ([]domain.Cashier, error)
	Create(ctx context.Context, c *domain.Cashier) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Cashier, error)
	SetBalances(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance, initial decimal.Decimal, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, department string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type remittanceCounter interface {
	CashierCounts(ctx context.Context, cashierID uuid.UUID) (outgoing, incoming int, err error)
}

type CashierService struct {
	db            *sql.DB
	cashiers      cashierStore
	remittances   remittanceCounter
	adminUsername string
}

func NewCashierService(db *sql.DB, cashiers cashierStore, remittances remittanceCounter, adminUsername string) *CashierService {
	return &CashierService{
		db:            db,
		cashiers:      cashiers,
		remittances:   remittances,
		adminUsername: adminUsername,
	}
}

// Login verifies credentials and stamps the login time. A wrong username and
// a wrong password are indistinguishable to the caller.
func (s *CashierService) Login(ctx context.Context, username, password string) (*domain.Cashier, error) {
	log := logging.FromContext(ctx)

	c, err := s.cashiers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrCashierNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	if !c.IsActive {
		return nil, fmt.Errorf("Login: %w", domain.ErrCashierInactive)
	}

	now := time.Now().UTC()
	if err := s.cashiers.TouchLogin(ctx, c.ID, now); err != nil {
		log.Warn("failed to stamp login time", "cashier_id", c.ID, "error", err)
	}
	c.LastLoginAt = &now

	log.Info("cashier logged in", "cashier_id", c.ID, "username", c.Username)
	return c, nil
}

type CreateCashierInput struct {
	Username    string
	Password    string
	Name        string
	Email       string
	Department  string
	PhoneNumber string
	Role        string
}

func (s *CashierService) Create(ctx context.Context, in CreateCashierInput) (*domain.Cashier, error) {
	log := logging.FromContext(ctx)

	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Create: hash password: %w", err)
	}

	c := &domain.Cashier{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Email:        in.Email,
		Department:   in.Department,
		PhoneNumber:  in.PhoneNumber,
		Role:         domain.ParseRole(in.Role),
		IsActive:     true,
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.cashiers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("cashier created", "cashier_id", c.ID, "username", c.Username, "role", c.Role)
	return c, nil
}

// AddBalance tops up the till by a strictly positive amount. This and
// SetInitialBalance are the only balance writers outside the ledger.
func (s *CashierService) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Cashier, error) {
	log := logging.FromContext(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("AddBalance: %w", domain.ErrInvalidAmount)
	}

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		c, err := s.cashiers.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.cashiers.SetBalances(ctx, tx, id, c.Balance.Add(amount), c.InitialBalance, time.Now().UTC())
	})
	if err != nil {
		return nil, fmt.Errorf("AddBalance: %w", err)
	}

	log.Info("cashier balance topped up", "cashier_id", id, "amount", amount)
	return s.cashiers.GetByID(ctx, id)
}

// SetInitialBalance resets both the current and the initial balance to the
// given non-negative figure.
func (s *CashierService) SetInitialBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Cashier, error) {
	log := logging.FromContext(ctx)

	if amount.IsNegative() {
		return nil, fmt.Errorf("SetInitialBalance: %w", domain.ErrInvalidAmount)
	}

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.cashiers.GetForUpdate(ctx, tx, id); err != nil {
			return err
		}
		return s.cashiers.SetBalances(ctx, tx, id, amount, amount, time.Now().UTC())
	})
	if err != nil {
		return nil, fmt.Errorf("SetInitialBalance: %w", err)
	}

	log.Info("cashier balance reset", "cashier_id", id, "amount", amount)
	return s.cashiers.GetByID(ctx, id)
}

func (s *CashierService) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("ChangePassword: %w", domain.ErrInvalidRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ChangePassword: hash password: %w", err)
	}
	if _, err := s.cashiers.GetByID(ctx, id); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if err := s.cashiers.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	return nil
}

func (s *CashierService) UpdateRole(ctx context.Context, id uuid.UUID, role, department string) (*domain.Cashier, error) {
	c, err := s.cashiers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateRole: %w", err)
	}
	if c.Username == s.adminUsername {
		return nil, fmt.Errorf("UpdateRole: %w", domain.ErrAdminImmutable)
	}
	if err := s.cashiers.UpdateRole(ctx, id, domain.ParseRole(role), department); err != nil {
		return nil, fmt.Errorf("UpdateRole: %w", err)
	}
	return s.cashiers.GetByID(ctx, id)
}

func (s *CashierService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Cashier, error) {
	c, err := s.cashiers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("SetActive: %w", err)
	}
	if c.Username == s.adminUsername && !active {
		return nil, fmt.Errorf("SetActive: %w", domain.ErrAdminImmutable)
	}
	if err := s.cashiers.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("SetActive: %w", err)
	}
	return s.cashiers.GetByID(ctx, id)
}

// Delete removes a cashier with no remittance history; tills that have moved
// money stay on record.
func (s *CashierService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.cashiers.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if c.Username == s.adminUsername {
		return fmt.Errorf("Delete: %w", domain.ErrAdminImmutable)
	}
	outgoing, incoming, err := s.remittances.CashierCounts(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if outgoing+incoming > 0 {
		return fmt.Errorf("Delete: cashier has remittance history: %w", domain.ErrInvalidRequest)
	}
	if err := s.cashiers.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *CashierService) Get(ctx context.Context, id uuid.UUID) (*domain.Cashier, error) {
	return s.cashiers.GetByID(ctx, id)
}

func (s *CashierService) List(ctx context.Context) ([]domain.Cashier, error) {
	return s.cashiers.List(ctx)
}
