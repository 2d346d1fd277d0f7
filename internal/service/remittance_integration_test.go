package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alawneh/eway-backoffice/internal/compliance"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/fees"
	"github.com/alawneh/eway-backoffice/internal/ledger"
	"github.com/alawneh/eway-backoffice/internal/repository"
	"github.com/alawneh/eway-backoffice/internal/service"
	"github.com/alawneh/eway-backoffice/internal/testutil"
)

func setupRemittanceServices(t *testing.T, db *sql.DB) (*service.RemittanceService, *service.ChangeRequestService) {
	t.Helper()

	cashiers := repository.NewCashierRepository(db)
	parties := repository.NewPartyRepository(db)
	remittances := repository.NewRemittanceRepository(db)
	requests := repository.NewChangeRequestRepository(db)
	feeTiers := repository.NewFeeTierRepository(db)

	till := ledger.New(cashiers)
	resolver := fees.NewResolver(feeTiers, fees.DefaultFlatBands())
	evaluator := compliance.NewEvaluator(remittances, compliance.Thresholds{
		Outgoing: decimal.NewFromInt(15000),
		Incoming: decimal.NewFromInt(20000),
	})

	remSvc := service.NewRemittanceService(db, remittances, requests, parties, cashiers, resolver, evaluator, till)
	crSvc := service.NewChangeRequestService(db, requests, remittances, resolver, till)
	return remSvc, crSvc
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateRemittance_DebitsSendingTill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "sender_till", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9871000001", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000002", domain.PartyTypeBeneficiary)
	testutil.SeedFeeTier(t, db, "Egypt", dec("0"), ptr(dec("1000")), dec("7"))

	rem, err := remSvc.Create(ctx, service.CreateRemittanceInput{
		SenderID:        sender.ID,
		BeneficiaryID:   beneficiary.ID,
		SenderCashierID: cashier.ID,
		Country:         "egypt",
		Amount:          dec("200"),
		Reason:          "family support",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, rem.Status)
	assert.True(t, rem.Fee.Equal(dec("7")), "fee %s", rem.Fee)
	assert.Equal(t, "Egypt", rem.Country)
	assert.Regexp(t, `^RM-\d{8}-\d{6}-\d{3}$`, rem.Reference)
	assert.Nil(t, rem.PaidAt)

	balance := testutil.GetCashierBalance(t, db, cashier.ID)
	assert.True(t, balance.Equal(dec("793")), "balance %s", balance)
}

func TestCreateRemittance_FlatFeeWhenCountryHasNoTiers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "flat_fee", domain.RoleUser, dec("5000"))
	sender := testutil.SeedParty(t, db, "9871000011", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000012", domain.PartyTypeBeneficiary)

	cases := []struct {
		amount string
		fee    string
	}{
		{"500", "5"},
		{"500.01", "7"},
		{"1000", "7"},
		{"1000.01", "10"},
	}
	for _, tc := range cases {
		rem, err := remSvc.Create(ctx, service.CreateRemittanceInput{
			SenderID:        sender.ID,
			BeneficiaryID:   beneficiary.ID,
			SenderCashierID: cashier.ID,
			Country:         "Yemen",
			Amount:          dec(tc.amount),
		})
		require.NoError(t, err, "amount %s", tc.amount)
		assert.True(t, rem.Fee.Equal(dec(tc.fee)), "amount %s: fee %s, want %s", tc.amount, rem.Fee, tc.fee)
	}
}

func TestCreateRemittance_OpensOnHoldAboveOutgoingThreshold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "outgoing_hold", domain.RoleUser, dec("100000"))
	sender := testutil.SeedParty(t, db, "9871000021", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000022", domain.PartyTypeBeneficiary)
	testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("14999.99"), dec("10"), domain.StatusPaymentPending)

	rem, err := remSvc.Create(ctx, service.CreateRemittanceInput{
		SenderID:        sender.ID,
		BeneficiaryID:   beneficiary.ID,
		SenderCashierID: cashier.ID,
		Country:         "Egypt",
		Amount:          dec("0.02"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplianceHold, rem.Status)
}

func TestCreateRemittance_TotalExactlyAtThresholdPasses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "at_threshold", domain.RoleUser, dec("100000"))
	sender := testutil.SeedParty(t, db, "9871000031", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000032", domain.PartyTypeBeneficiary)
	testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("14999.99"), dec("10"), domain.StatusPaymentPending)

	rem, err := remSvc.Create(ctx, service.CreateRemittanceInput{
		SenderID:        sender.ID,
		BeneficiaryID:   beneficiary.ID,
		SenderCashierID: cashier.ID,
		Country:         "Egypt",
		Amount:          dec("0.01"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, rem.Status)
}

func TestMarkPaid_PaysOutReceivingTill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "mp_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "mp_receiver", domain.RoleUser, dec("500"))
	sender := testutil.SeedParty(t, db, "9871000041", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000042", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("200"), dec("7"), domain.StatusPaymentPending)

	paid, err := remSvc.MarkPaid(ctx, rem.ID, recvCashier.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.ReceiverCashierID)
	assert.Equal(t, recvCashier.ID, *paid.ReceiverCashierID)

	balance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, balance.Equal(dec("300")), "balance %s", balance)
}

func TestMarkPaid_InsufficientReceiverBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "if_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "if_receiver", domain.RoleUser, dec("100"))
	sender := testutil.SeedParty(t, db, "9871000051", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000052", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("150"), dec("5"), domain.StatusPaymentPending)

	_, err := remSvc.MarkPaid(ctx, rem.ID, recvCashier.ID)

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, domain.StatusPaymentPending, testutil.GetRemittanceStatus(t, db, rem.ID))
	balance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, balance.Equal(dec("100")), "balance %s", balance)
}

func TestMarkPaid_IncomingHoldIsPersisted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "ih_sender", domain.RoleUser, dec("100000"))
	recvCashier := testutil.SeedCashier(t, db, "ih_receiver", domain.RoleUser, dec("100000"))
	sender := testutil.SeedParty(t, db, "9871000061", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000062", domain.PartyTypeBeneficiary)

	// Prior delivered volume puts the beneficiary just under the incoming
	// threshold; the next payout pushes the total over it.
	testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("19900"), dec("10"), domain.StatusPaid)
	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("150"), dec("5"), domain.StatusPaymentPending)

	_, err := remSvc.MarkPaid(ctx, rem.ID, recvCashier.ID)

	require.ErrorIs(t, err, domain.ErrComplianceHold)
	assert.Equal(t, domain.StatusComplianceHold, testutil.GetRemittanceStatus(t, db, rem.ID))
	balance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, balance.Equal(dec("100000")), "balance %s", balance)
}

func TestForcePay_PaysOutHeldRemittance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "fp_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "fp_receiver", domain.RoleUser, dec("500"))
	sender := testutil.SeedParty(t, db, "9871000071", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000072", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("200"), dec("7"), domain.StatusComplianceHold)

	paid, err := remSvc.ForcePay(ctx, rem.ID, recvCashier.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	balance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, balance.Equal(dec("300")), "balance %s", balance)
}

func TestForcePay_RejectsRemittanceNotOnHold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "fpn_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "fpn_receiver", domain.RoleUser, dec("500"))
	sender := testutil.SeedParty(t, db, "9871000081", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000082", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("200"), dec("7"), domain.StatusPaid)

	_, err := remSvc.ForcePay(ctx, rem.ID, recvCashier.ID)
	require.ErrorIs(t, err, domain.ErrNotOnHold)
}

func TestRelease_ClearsHoldAndRecordsNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "rl_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9871000091", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000092", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("200"), dec("7"), domain.StatusComplianceHold)

	released, err := remSvc.Release(ctx, rem.ID, "verified source of funds")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, released.Status)

	withNote, err := remSvc.GetByReference(ctx, rem.Reference)
	require.NoError(t, err)
	require.NotNil(t, withNote.ReleaseNote)
	assert.Contains(t, *withNote.ReleaseNote, "verified source of funds")
}

func TestReturnToPending_RevertsBothTills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "rtp_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "rtp_receiver", domain.RoleUser, dec("500"))
	sender := testutil.SeedParty(t, db, "9871000101", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000102", domain.PartyTypeBeneficiary)
	testutil.SeedFeeTier(t, db, "Egypt", dec("0"), ptr(dec("1000")), dec("7"))

	rem, err := remSvc.Create(ctx, service.CreateRemittanceInput{
		SenderID:        sender.ID,
		BeneficiaryID:   beneficiary.ID,
		SenderCashierID: sendCashier.ID,
		Country:         "Egypt",
		Amount:          dec("200"),
	})
	require.NoError(t, err)

	_, err = remSvc.MarkPaid(ctx, rem.ID, recvCashier.ID)
	require.NoError(t, err)

	reverted, err := remSvc.ReturnToPending(ctx, rem.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, reverted.Status)
	assert.Nil(t, reverted.PaidAt)

	// Receiver gets the amount back; the sending till is debited again, it
	// is not refunded.
	recvBalance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, recvBalance.Equal(dec("500")), "receiver balance %s", recvBalance)
	sendBalance := testutil.GetCashierBalance(t, db, sendCashier.ID)
	assert.True(t, sendBalance.Equal(dec("586")), "sender balance %s", sendBalance)
}

func TestMarkPaid_ConcurrentPayoutsCannotOverdraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, _ := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "co_sender", domain.RoleUser, dec("10000"))
	recvCashier := testutil.SeedCashier(t, db, "co_receiver", domain.RoleUser, dec("200"))
	sender := testutil.SeedParty(t, db, "9871000111", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000112", domain.PartyTypeBeneficiary)

	remA := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("150"), dec("5"), domain.StatusPaymentPending)
	remB := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("150"), dec("5"), domain.StatusPaymentPending)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, rem := range []*domain.Remittance{remA, remB} {
		wg.Add(1)
		go func(rem *domain.Remittance) {
			defer wg.Done()
			_, err := remSvc.MarkPaid(ctx, rem.ID, recvCashier.ID)
			results <- err
		}(rem)
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one payout should succeed")
	assert.Equal(t, 1, failures, "exactly one payout should fail")

	balance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, balance.Equal(dec("50")), "balance must be 50, not negative: %s", balance)
}

func TestDeleteRemittance_BlockedByChangeRequestHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "del_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9871000121", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9871000122", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, sendCashier.ID, dec("200"), dec("7"), domain.StatusPaymentPending)

	_, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)

	err = remSvc.Delete(ctx, rem.ID)
	require.ErrorIs(t, err, domain.ErrHasChangeRequests)
}

func ptr[T any](v T) *T { return &v }
