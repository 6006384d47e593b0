package invitestatedb

import (
	"strings"
	"time"
)

const (
	PurchaseStatusPending    = "pending"
	PurchaseStatusPaid       = "paid"
	PurchaseStatusRegistered = "registered"
	PurchaseStatusFailed     = "failed"
)

// Helper wrapper functions that redirect to SQLite implementations

func GetInviteCode(code string) (*InviteCode, error) {
	return GetInviteCodeFromSQLite(code)
}

func HasWalletRedeemedInvite(wallet string) (bool, error) {
	return HasWalletRedeemedInviteInSQLite(wallet)
}

func MarkInviteRedeemed(code string, wallet string) (bool, error) {
	return MarkInviteRedeemedInSQLite(code, wallet)
}

func RecordETHLeg(code string, txHash string) error {
	return RecordETHLegInSQLite(code, txHash)
}

func RecordUSDCLeg(code string, txHash string) error {
	return RecordUSDCLegInSQLite(code, txHash)
}

func CreateInviteCode(code string, amountUSDC, amountETH float64, expiresAt *time.Time) error {
	return CreateInviteCodeInSQLite(code, amountUSDC, amountETH, expiresAt)
}

func SeedInviteCodes(amountUSDC, amountETH float64) error {
	return SeedInviteCodesInSQLite(amountUSDC, amountETH)
}

// Domain functions

func SaveDomain(domain Domain) error {
	return SaveDomainToSQLite(domain)
}

func GetDomain(name string) (*Domain, error) {
	return GetDomainFromSQLite(name)
}

func GetDomainsByWallet(wallet string) ([]Domain, error) {
	return GetDomainsByWalletFromSQLite(wallet)
}

func UpdateDomainNameservers(name string, nameservers []string) error {
	return UpdateDomainNameserversInSQLite(name, nameservers)
}

// VerifyDomainOwner verifies the wallet address owns this domain
func VerifyDomainOwner(name string, wallet string) (bool, error) {
	domain, err := GetDomain(name)
	if err != nil {
		return false, err
	}
	if domain == nil {
		return false, nil
	}
	return strings.EqualFold(domain.OwnerWallet, wallet), nil
}

// Purchase functions

func SavePurchase(purchase Purchase) error {
	return SavePurchaseToSQLite(purchase)
}

func GetPurchase(id string) (*Purchase, error) {
	return GetPurchaseFromSQLite(id)
}

func UpdatePurchase(id string, updates map[string]interface{}) error {
	return UpdatePurchaseInSQLite(id, updates)
}
