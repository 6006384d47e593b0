package invitestatedb

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DB is the global SQLite database instance
var DB *gorm.DB

// InitSQLiteDB initializes the SQLite database
func InitSQLiteDB(dbPath string) error {
	var err error

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := ensureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory: %v", err)
		}
	}

	// Configure GORM to be less verbose
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	// Open the database
	DB, err = gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	// Auto-migrate schemas
	err = DB.AutoMigrate(
		&SQLiteInviteCode{},
		&SQLiteDomain{},
		&SQLitePurchase{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	log.Println("SQLite database initialized successfully")
	return nil
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// GetInviteCodeFromSQLite looks up an invite code by its code string,
// case-insensitively. Returns nil with no error when the code does not exist.
func GetInviteCodeFromSQLite(code string) (*InviteCode, error) {
	var row SQLiteInviteCode

	result := DB.Where("UPPER(code) = UPPER(?)", code).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up invite code: %v", result.Error)
	}

	return inviteFromRow(&row), nil
}

// HasWalletRedeemedInviteInSQLite checks if a wallet has already redeemed
// any invite code
func HasWalletRedeemedInviteInSQLite(wallet string) (bool, error) {
	var count int64

	result := DB.Model(&SQLiteInviteCode{}).
		Where("LOWER(redeemed_by) = LOWER(?)", wallet).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check wallet redemptions: %v", result.Error)
	}

	return count > 0, nil
}

// MarkInviteRedeemedInSQLite atomically marks an invite code as redeemed.
// The single conditional UPDATE both requires the code to be unredeemed and
// requires the wallet to have no prior redemption of any code, so two
// concurrent requests can never both win and a wallet can never win two
// codes' gates concurrently. Returns false if the condition did not hold by
// the time the update ran.
func MarkInviteRedeemedInSQLite(code string, wallet string) (bool, error) {
	now := time.Now().UTC()

	result := DB.Exec(
		`UPDATE invite_codes
		 SET redeemed_at = ?, redeemed_by = ?, updated_at = ?
		 WHERE UPPER(code) = UPPER(?)
		   AND redeemed_at IS NULL
		   AND is_active = 1
		   AND NOT EXISTS (
		     SELECT 1 FROM invite_codes
		     WHERE LOWER(redeemed_by) = LOWER(?)
		   )`,
		now, strings.ToLower(wallet), now, code, wallet,
	)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark invite redeemed: %v", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// RecordETHLegInSQLite records the ETH leg transaction hash on a redeemed
// code. The hash is written at most once; a second call is a no-op.
func RecordETHLegInSQLite(code string, txHash string) error {
	result := DB.Model(&SQLiteInviteCode{}).
		Where("UPPER(code) = UPPER(?) AND eth_tx_hash IS NULL", code).
		Update("eth_tx_hash", txHash)
	if result.Error != nil {
		return fmt.Errorf("failed to record ETH leg: %v", result.Error)
	}
	return nil
}

// RecordUSDCLegInSQLite records the USDC leg transaction hash on a redeemed
// code. The hash is written at most once; a second call is a no-op.
func RecordUSDCLegInSQLite(code string, txHash string) error {
	result := DB.Model(&SQLiteInviteCode{}).
		Where("UPPER(code) = UPPER(?) AND usdc_tx_hash IS NULL", code).
		Update("usdc_tx_hash", txHash)
	if result.Error != nil {
		return fmt.Errorf("failed to record USDC leg: %v", result.Error)
	}
	return nil
}

// CreateInviteCodeInSQLite creates a new invite code. The code string is
// canonicalized to upper-case on insert.
func CreateInviteCodeInSQLite(code string, amountUSDC, amountETH float64, expiresAt *time.Time) error {
	row := SQLiteInviteCode{
		Code:       strings.ToUpper(code),
		AmountUSDC: amountUSDC,
		AmountETH:  amountETH,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}

	if err := DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create invite code: %v", err)
	}
	return nil
}

// SeedInviteCodesInSQLite seeds CL001..CL020 into an empty invite_codes
// table. A non-empty table makes this a no-op, so seeding is idempotent.
func SeedInviteCodesInSQLite(amountUSDC, amountETH float64) error {
	var count int64
	if err := DB.Model(&SQLiteInviteCode{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count invite codes: %v", err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]SQLiteInviteCode, 0, 20)
	for i := 1; i <= 20; i++ {
		rows = append(rows, SQLiteInviteCode{
			Code:       fmt.Sprintf("CL%03d", i),
			AmountUSDC: amountUSDC,
			AmountETH:  amountETH,
			IsActive:   true,
		})
	}

	if err := DB.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed invite codes: %v", err)
	}

	log.Printf("Seeded %d invite codes", len(rows))
	return nil
}

func inviteFromRow(row *SQLiteInviteCode) *InviteCode {
	invite := &InviteCode{
		Code:       row.Code,
		AmountUSDC: row.AmountUSDC,
		AmountETH:  row.AmountETH,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
		RedeemedAt: row.RedeemedAt,
		IsActive:   row.IsActive,
	}
	if row.RedeemedBy != nil {
		invite.RedeemedBy = *row.RedeemedBy
	}
	if row.USDCTxHash != nil {
		invite.USDCTxHash = *row.USDCTxHash
	}
	if row.ETHTxHash != nil {
		invite.ETHTxHash = *row.ETHTxHash
	}
	return invite
}

// SaveDomainToSQLite creates or replaces a domain record
func SaveDomainToSQLite(domain Domain) error {
	nameservers, err := json.Marshal(domain.Nameservers)
	if err != nil {
		return fmt.Errorf("failed to encode nameservers: %v", err)
	}

	row := SQLiteDomain{
		Domain:       domain.DomainName,
		OwnerWallet:  domain.OwnerWallet,
		ExpiresAt:    domain.ExpiresAt,
		Nameservers:  string(nameservers),
		RegisteredAt: domain.RegisteredAt,
	}
	if domain.Registrant != "" {
		row.Registrant = &domain.Registrant
	}

	result := DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		UpdateAll: true,
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to save domain: %v", result.Error)
	}
	return nil
}

// GetDomainFromSQLite retrieves a domain by name
func GetDomainFromSQLite(name string) (*Domain, error) {
	var row SQLiteDomain

	result := DB.Where("domain = ?", name).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up domain: %v", result.Error)
	}

	return domainFromRow(&row)
}

// GetDomainsByWalletFromSQLite retrieves all domains owned by a wallet
// address, newest first. Matching is case-insensitive so users only ever
// see their own domains.
func GetDomainsByWalletFromSQLite(wallet string) ([]Domain, error) {
	var rows []SQLiteDomain

	result := DB.Where("LOWER(owner_wallet) = LOWER(?)", wallet).
		Order("registered_at DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list domains: %v", result.Error)
	}

	domains := make([]Domain, 0, len(rows))
	for i := range rows {
		domain, err := domainFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		domains = append(domains, *domain)
	}

	return domains, nil
}

// UpdateDomainNameserversInSQLite updates a domain's nameserver list
func UpdateDomainNameserversInSQLite(name string, nameservers []string) error {
	encoded, err := json.Marshal(nameservers)
	if err != nil {
		return fmt.Errorf("failed to encode nameservers: %v", err)
	}

	result := DB.Model(&SQLiteDomain{}).
		Where("domain = ?", name).
		Update("nameservers", string(encoded))
	if result.Error != nil {
		return fmt.Errorf("failed to update nameservers: %v", result.Error)
	}
	return nil
}

func domainFromRow(row *SQLiteDomain) (*Domain, error) {
	var nameservers []string
	if row.Nameservers != "" {
		if err := json.Unmarshal([]byte(row.Nameservers), &nameservers); err != nil {
			return nil, fmt.Errorf("failed to decode nameservers: %v", err)
		}
	}

	domain := &Domain{
		DomainName:   row.Domain,
		OwnerWallet:  row.OwnerWallet,
		ExpiresAt:    row.ExpiresAt,
		Nameservers:  nameservers,
		RegisteredAt: row.RegisteredAt,
	}
	if row.Registrant != nil {
		domain.Registrant = *row.Registrant
	}
	return domain, nil
}

// SavePurchaseToSQLite creates a new purchase record
func SavePurchaseToSQLite(purchase Purchase) error {
	row := SQLitePurchase{
		PurchaseID: purchase.ID,
		Domain:     purchase.Domain,
		Years:      purchase.Years,
		Amount:     purchase.Amount,
		Status:     purchase.Status,
		ExpiresAt:  purchase.ExpiresAt,
	}
	if purchase.Payer != "" {
		row.Payer = &purchase.Payer
	}
	if purchase.TxHash != "" {
		row.TxHash = &purchase.TxHash
	}
	if purchase.Registrant != "" {
		row.Registrant = &purchase.Registrant
	}
	if purchase.Nonce != "" {
		row.Nonce = &purchase.Nonce
	}
	if purchase.Signature != "" {
		row.Signature = &purchase.Signature
	}

	if err := DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create purchase: %v", err)
	}
	return nil
}

// GetPurchaseFromSQLite retrieves a purchase by ID
func GetPurchaseFromSQLite(id string) (*Purchase, error) {
	var row SQLitePurchase

	result := DB.Where("purchase_id = ?", id).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up purchase: %v", result.Error)
	}

	purchase := &Purchase{
		ID:        row.PurchaseID,
		Domain:    row.Domain,
		Years:     row.Years,
		Amount:    row.Amount,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if row.Payer != nil {
		purchase.Payer = *row.Payer
	}
	if row.TxHash != nil {
		purchase.TxHash = *row.TxHash
	}
	if row.Registrant != nil {
		purchase.Registrant = *row.Registrant
	}
	if row.Nonce != nil {
		purchase.Nonce = *row.Nonce
	}
	if row.Signature != nil {
		purchase.Signature = *row.Signature
	}
	return purchase, nil
}

// UpdatePurchaseInSQLite applies field updates to a purchase record
func UpdatePurchaseInSQLite(id string, updates map[string]interface{}) error {
	result := DB.Model(&SQLitePurchase{}).
		Where("purchase_id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update purchase: %v", result.Error)
	}
	return nil
}
