package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

func SeedCashier(t *testing.T, db *sql.DB, username string, role domain.Role, balance decimal.Decimal) *domain.Cashier {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	c := &domain.Cashier{
		ID:             uuid.New(),
		Username:       username,
		PasswordHash:   string(hash),
		Name:           username,
		Role:           role,
		IsActive:       true,
		Balance:        balance,
		InitialBalance: balance,
		CreatedAt:      time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO cashiers (id, username, password_hash, name, role, is_active, balance, initial_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Username, c.PasswordHash, c.Name, c.Role, c.IsActive, c.Balance, c.InitialBalance, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed cashier %s: %v", username, err)
	}
	return c
}

func SeedParty(t *testing.T, db *sql.DB, nationalID string, partyType domain.PartyType) *domain.Party {
	t.Helper()

	p := &domain.Party{
		ID:          uuid.New(),
		NationalID:  nationalID,
		NameAr:      "طرف " + nationalID,
		NameEn:      "Party " + nationalID,
		PhoneNumber: "0790000000",
		BirthDate:   time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:        partyType,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO parties (id, national_id, name_ar, name_en, phone_number, birth_date, party_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.NationalID, p.NameAr, p.NameEn, p.PhoneNumber, p.BirthDate, p.Type, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed party %s: %v", nationalID, err)
	}
	return p
}

func SeedRemittance(t *testing.T, db *sql.DB, sender, beneficiary *domain.Party, cashierID uuid.UUID, amount, fee decimal.Decimal, status domain.RemittanceStatus) *domain.Remittance {
	t.Helper()

	now := time.Now().UTC()
	rem := &domain.Remittance{
		ID:              uuid.New(),
		Reference:       domain.NewReference(domain.ReferencePrefixRemittance, now),
		SenderID:        sender.ID,
		BeneficiaryID:   beneficiary.ID,
		SenderCashierID: &cashierID,
		Country:         "Egypt",
		Amount:          amount,
		Fee:             fee,
		Status:          status,
		CreatedAt:       now,
	}
	if status == domain.StatusPaid {
		rem.ReceiverCashierID = &cashierID
		rem.PaidAt = &now
	}

	_, err := db.Exec(
		`INSERT INTO remittances (id, reference, sender_id, beneficiary_id, sender_cashier_id, receiver_cashier_id, country, amount, fee, status, created_at, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rem.ID, rem.Reference, rem.SenderID, rem.BeneficiaryID, rem.SenderCashierID, rem.ReceiverCashierID,
		rem.Country, rem.Amount, rem.Fee, rem.Status, rem.CreatedAt, rem.PaidAt,
	)
	if err != nil {
		t.Fatalf("seed remittance %s: %v", rem.Reference, err)
	}
	return rem
}

func SeedFeeTier(t *testing.T, db *sql.DB, country string, min decimal.Decimal, max *decimal.Decimal, fee decimal.Decimal) *domain.FeeTier {
	t.Helper()

	tier := &domain.FeeTier{
		ID:        uuid.New(),
		Country:   country,
		MinAmount: min,
		MaxAmount: max,
		Fee:       fee,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO fee_tiers (id, country, min_amount, max_amount, fee, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tier.ID, tier.Country, tier.MinAmount, tier.MaxAmount, tier.Fee, tier.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed fee tier %s: %v", country, err)
	}
	return tier
}

func GetCashierBalance(t *testing.T, db *sql.DB, cashierID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM cashiers WHERE id = $1`, cashierID).Scan(&balance)
	if err != nil {
		t.Fatalf("get cashier balance %s: %v", cashierID, err)
	}
	return balance
}

func GetRemittanceStatus(t *testing.T, db *sql.DB, remittanceID uuid.UUID) domain.RemittanceStatus {
	t.Helper()

	var status domain.RemittanceStatus
	err := db.QueryRow(`SELECT status FROM remittances WHERE id = $1`, remittanceID).Scan(&status)
	if err != nil {
		t.Fatalf("get remittance status %s: %v", remittanceID, err)
	}
	return status
}
