package invitestatedb

import (
	"time"

	"gorm.io/gorm"
)

// SQLiteInviteCode represents a single-use promotional invite code.
// The redemption fields (RedeemedAt, RedeemedBy and the two leg hashes)
// are written exactly once; RedeemedAt doubling as the compare-and-swap
// condition for the redemption transition.
type SQLiteInviteCode struct {
	gorm.Model
	Code       string `gorm:"uniqueIndex"` // stored canonical upper-case
	AmountUSDC float64
	AmountETH  float64
	ExpiresAt  *time.Time
	RedeemedAt *time.Time `gorm:"index"`
	RedeemedBy *string    `gorm:"index"` // stored lower-case
	USDCTxHash *string
	ETHTxHash  *string
	IsActive   bool `gorm:"index"`
}

func (SQLiteInviteCode) TableName() string { return "invite_codes" }

// SQLiteDomain represents a registered domain owned by a wallet
type SQLiteDomain struct {
	gorm.Model
	Domain       string `gorm:"uniqueIndex"`
	OwnerWallet  string `gorm:"index"`
	ExpiresAt    time.Time
	Nameservers  string // JSON-encoded list
	RegisteredAt time.Time `gorm:"index"`
	Registrant   *string
}

func (SQLiteDomain) TableName() string { return "domains" }

// SQLitePurchase represents a domain purchase in progress
type SQLitePurchase struct {
	gorm.Model
	PurchaseID string `gorm:"uniqueIndex"`
	Domain     string `gorm:"index"`
	Years      int
	Amount     string
	Status     string `gorm:"index"` // pending, paid, registered, failed
	ExpiresAt  time.Time
	Payer      *string
	TxHash     *string
	Registrant *string // JSON-encoded contact data
	Nonce      *string
	Signature  *string
}

func (SQLitePurchase) TableName() string { return "purchases" }
