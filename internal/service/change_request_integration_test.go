package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/service"
	"github.com/alawneh/eway-backoffice/internal/testutil"
)

func TestFileChangeRequest_MovesRemittanceToPendingApproval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "cr_file", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000001", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000002", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("7"), domain.StatusPaid)

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
		Notes:       ptr("wrong beneficiary"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ChangeRequestPending, cr.Status)
	assert.Equal(t, rem.ID, cr.RemittanceID)

	// Filing parks the remittance for approval but keeps the payout marker.
	got, err := remSvc.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestFileChangeRequest_RejectsUnknownType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, crSvc := setupRemittanceServices(t, db)

	_, err := crSvc.File(context.Background(), service.FileChangeRequestInput{
		Reference:   "RM-01011999-000000-000",
		RequestType: "escalate",
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestApproveReturnToPending_ReversesDeliveredPayout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	sendCashier := testutil.SeedCashier(t, db, "cra_sender", domain.RoleUser, dec("1000"))
	recvCashier := testutil.SeedCashier(t, db, "cra_receiver", domain.RoleUser, dec("500"))
	sender := testutil.SeedParty(t, db, "9872000011", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000012", domain.PartyTypeBeneficiary)
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

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)

	approved, err := crSvc.Approve(ctx, cr.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ChangeRequestApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	got, err := remSvc.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, got.Status)
	assert.Nil(t, got.PaidAt)

	recvBalance := testutil.GetCashierBalance(t, db, recvCashier.ID)
	assert.True(t, recvBalance.Equal(dec("500")), "receiver balance %s", recvBalance)
	sendBalance := testutil.GetCashierBalance(t, db, sendCashier.ID)
	assert.True(t, sendBalance.Equal(dec("586")), "sender balance %s", sendBalance)
}

func TestApproveReturnToPending_UndeliveredRemittanceSkipsLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "cru_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000021", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000022", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("7"), domain.StatusPaymentPending)

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)

	_, err = crSvc.Approve(ctx, cr.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaymentPending, testutil.GetRemittanceStatus(t, db, rem.ID))
	balance := testutil.GetCashierBalance(t, db, cashier.ID)
	assert.True(t, balance.Equal(dec("1000")), "balance %s", balance)
}

func TestApproveUpdateDetails_AppliesProposedFieldsAndRecomputesFee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "crd_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000031", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000032", domain.PartyTypeBeneficiary)
	testutil.SeedFeeTier(t, db, "Egypt", dec("0"), ptr(dec("500")), dec("4"))
	testutil.SeedFeeTier(t, db, "Egypt", dec("500"), ptr(dec("1000")), dec("8"))

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("4"), domain.StatusPaymentPending)

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:      rem.Reference,
		RequestType:    domain.ChangeRequestUpdateDetails,
		ProposedAmount: ptr(dec("700")),
		ProposedReason: ptr("medical expenses"),
	})
	require.NoError(t, err)

	_, err = crSvc.Approve(ctx, cr.ID)
	require.NoError(t, err)

	got, err := remSvc.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("700")), "amount %s", got.Amount)
	assert.True(t, got.Fee.Equal(dec("8")), "fee %s", got.Fee)
	assert.Equal(t, "medical expenses", got.Reason)
	// An update-details approval does not move the status back on its own.
	assert.Equal(t, domain.StatusPendingApproval, got.Status)
}

func TestApprove_AlreadyResolvedRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "crr_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000041", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000042", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("7"), domain.StatusPaymentPending)

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)

	_, err = crSvc.Approve(ctx, cr.ID)
	require.NoError(t, err)

	_, err = crSvc.Approve(ctx, cr.ID)
	require.ErrorIs(t, err, domain.ErrRequestNotPending)
}

func TestReject_RestoresWorkingStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remSvc, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "crj_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000051", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000052", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("7"), domain.StatusPaid)

	cr, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)

	rejected, err := crSvc.Reject(ctx, cr.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ChangeRequestRejected, rejected.Status)
	assert.Nil(t, rejected.ApprovedAt)

	got, err := remSvc.Get(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentPending, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestReject_KeepsPendingApprovalWhileAnotherRequestIsOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, crSvc := setupRemittanceServices(t, db)
	ctx := context.Background()

	cashier := testutil.SeedCashier(t, db, "crm_sender", domain.RoleUser, dec("1000"))
	sender := testutil.SeedParty(t, db, "9872000061", domain.PartyTypeSender)
	beneficiary := testutil.SeedParty(t, db, "9872000062", domain.PartyTypeBeneficiary)

	rem := testutil.SeedRemittance(t, db, sender, beneficiary, cashier.ID, dec("200"), dec("7"), domain.StatusPaymentPending)

	first, err := crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:   rem.Reference,
		RequestType: domain.ChangeRequestReturnToPending,
	})
	require.NoError(t, err)
	_, err = crSvc.File(ctx, service.FileChangeRequestInput{
		Reference:      rem.Reference,
		RequestType:    domain.ChangeRequestUpdateDetails,
		ProposedReason: ptr("updated reason"),
	})
	require.NoError(t, err)

	_, err = crSvc.Reject(ctx, first.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingApproval, testutil.GetRemittanceStatus(t, db, rem.ID))
}
