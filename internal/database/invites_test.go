package invitestatedb

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	// Use a per-test in-memory database to avoid cross-test interference
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	require.NoError(t, InitSQLiteDB(dsn))

	// Serialize writes so concurrent redemption tests exercise the CAS
	// rather than SQLite lock contention
	sqlDB, err := DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
}

func TestMarkInviteRedeemedExactlyOnce(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("CL001", 1.0, 0.001, nil))

	granted, err := MarkInviteRedeemed("CL001", "0xAAA1")
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = MarkInviteRedeemed("CL001", "0xBBB2")
	require.NoError(t, err)
	require.False(t, granted)

	invite, err := GetInviteCode("CL001")
	require.NoError(t, err)
	require.NotNil(t, invite)
	require.True(t, invite.Redeemed())
	require.Equal(t, "0xaaa1", invite.RedeemedBy)
}

func TestMarkInviteRedeemedConcurrent(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("CL001", 1.0, 0.001, nil))

	type outcome struct {
		granted bool
		err     error
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan outcome, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			granted, err := MarkInviteRedeemed("CL001", fmt.Sprintf("0xwallet%d", i))
			results <- outcome{granted: granted, err: err}
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for res := range results {
		require.NoError(t, res.err)
		if res.granted {
			winners++
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent attempt must win the gate")
}

func TestWalletCannotRedeemTwoCodes(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("CL001", 1.0, 0.001, nil))
	require.NoError(t, CreateInviteCode("CL002", 1.0, 0.001, nil))

	granted, err := MarkInviteRedeemed("CL001", "0xSameWallet")
	require.NoError(t, err)
	require.True(t, granted)

	// The wallet rule is part of the atomic condition, so the second code's
	// gate rejects the same wallet even without the pre-check
	granted, err = MarkInviteRedeemed("CL002", "0xSAMEWALLET")
	require.NoError(t, err)
	require.False(t, granted)

	hasRedeemed, err := HasWalletRedeemedInvite("0xsamewallet")
	require.NoError(t, err)
	require.True(t, hasRedeemed)
}

func TestGetInviteCodeCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("cl007", 2.5, 0.002, nil))

	invite, err := GetInviteCode("Cl007")
	require.NoError(t, err)
	require.NotNil(t, invite)
	require.Equal(t, "CL007", invite.Code)
	require.Equal(t, 2.5, invite.AmountUSDC)
	require.Equal(t, 0.002, invite.AmountETH)

	missing, err := GetInviteCode("CL999")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetInviteCodeIdempotent(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("CL001", 1.0, 0.001, nil))

	first, err := GetInviteCode("CL001")
	require.NoError(t, err)
	second, err := GetInviteCode("CL001")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRecordLegsWriteOnce(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, CreateInviteCode("CL001", 1.0, 0.001, nil))

	granted, err := MarkInviteRedeemed("CL001", "0xAAA1")
	require.NoError(t, err)
	require.True(t, granted)

	require.NoError(t, RecordETHLeg("CL001", "0xeth1"))
	require.NoError(t, RecordETHLeg("CL001", "0xeth2"))

	invite, err := GetInviteCode("CL001")
	require.NoError(t, err)
	require.Equal(t, "0xeth1", invite.ETHTxHash)
	// Partial state: ETH leg settled, USDC leg still absent
	require.Empty(t, invite.USDCTxHash)

	require.NoError(t, RecordUSDCLeg("CL001", "0xusdc1"))
	invite, err = GetInviteCode("CL001")
	require.NoError(t, err)
	require.Equal(t, "0xusdc1", invite.USDCTxHash)
}

func TestSeedInviteCodesIdempotent(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SeedInviteCodes(1.0, 0.001))
	require.NoError(t, SeedInviteCodes(1.0, 0.001))

	var count int64
	require.NoError(t, DB.Model(&SQLiteInviteCode{}).Count(&count).Error)
	require.EqualValues(t, 20, count)

	first, err := GetInviteCode("CL001")
	require.NoError(t, err)
	require.NotNil(t, first)
	last, err := GetInviteCode("CL020")
	require.NoError(t, err)
	require.NotNil(t, last)
}

func TestDomainOwnership(t *testing.T) {
	setupTestDB(t)

	domain := Domain{
		DomainName:   "example.clearnet",
		OwnerWallet:  "0xOwner",
		ExpiresAt:    time.Now().Add(365 * 24 * time.Hour),
		Nameservers:  []string{"ns1.example.com", "ns2.example.com"},
		RegisteredAt: time.Now(),
	}
	require.NoError(t, SaveDomain(domain))

	owned, err := VerifyDomainOwner("example.clearnet", "0xowner")
	require.NoError(t, err)
	require.True(t, owned)

	owned, err = VerifyDomainOwner("example.clearnet", "0xstranger")
	require.NoError(t, err)
	require.False(t, owned)

	domains, err := GetDomainsByWallet("0xOWNER")
	require.NoError(t, err)
	require.Len(t, domains, 1)
	require.Equal(t, []string{"ns1.example.com", "ns2.example.com"}, domains[0].Nameservers)

	require.NoError(t, UpdateDomainNameservers("example.clearnet", []string{"ns3.example.com"}))
	updated, err := GetDomain("example.clearnet")
	require.NoError(t, err)
	require.Equal(t, []string{"ns3.example.com"}, updated.Nameservers)
}

func TestPurchaseLifecycle(t *testing.T) {
	setupTestDB(t)

	purchase := Purchase{
		ID:         "purchase-1",
		Domain:     "example.clearnet",
		Years:      2,
		Amount:     "10.00",
		Status:     PurchaseStatusPending,
		ExpiresAt:  time.Now().Add(time.Hour),
		Registrant: `{"name":"Alice Example"}`,
		Nonce:      "nonce-1",
	}
	require.NoError(t, SavePurchase(purchase))

	require.NoError(t, UpdatePurchase("purchase-1", map[string]interface{}{
		"status":    PurchaseStatusPaid,
		"tx_hash":   "0xdeadbeef",
		"payer":     "0xAAA1",
		"signature": "0xsig1",
	}))

	got, err := GetPurchase("purchase-1")
	require.NoError(t, err)
	require.Equal(t, PurchaseStatusPaid, got.Status)
	require.Equal(t, "0xdeadbeef", got.TxHash)
	require.Equal(t, "0xAAA1", got.Payer)
	require.Equal(t, "0xsig1", got.Signature)
	require.Equal(t, `{"name":"Alice Example"}`, got.Registrant)
	require.Equal(t, "nonce-1", got.Nonce)

	require.NoError(t, UpdatePurchase("purchase-1", map[string]interface{}{
		"status": PurchaseStatusRegistered,
	}))
	got, err = GetPurchase("purchase-1")
	require.NoError(t, err)
	require.Equal(t, PurchaseStatusRegistered, got.Status)

	failed := Purchase{
		ID:        "purchase-2",
		Domain:    "other.clearnet",
		Years:     1,
		Amount:    "5.00",
		Status:    PurchaseStatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, SavePurchase(failed))
	require.NoError(t, UpdatePurchase("purchase-2", map[string]interface{}{
		"status": PurchaseStatusFailed,
	}))
	got, err = GetPurchase("purchase-2")
	require.NoError(t, err)
	require.Equal(t, PurchaseStatusFailed, got.Status)

	missing, err := GetPurchase("purchase-404")
	require.NoError(t, err)
	require.Nil(t, missing)
}
