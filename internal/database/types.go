package invitestatedb

import "time"

type InviteCode struct {
	Code       string
	AmountUSDC float64
	AmountETH  float64
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	RedeemedAt *time.Time
	RedeemedBy string
	USDCTxHash string
	ETHTxHash  string
	IsActive   bool
}

// Redeemed reports whether the code has gone through its one-time
// redemption transition.
func (c *InviteCode) Redeemed() bool {
	return c.RedeemedAt != nil
}

// Expired reports whether the code's optional expiry has passed.
func (c *InviteCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

type Domain struct {
	DomainName   string
	OwnerWallet  string
	ExpiresAt    time.Time
	Nameservers  []string
	RegisteredAt time.Time
	Registrant   string
}

type Purchase struct {
	ID         string
	Domain     string
	Years      int
	Amount     string
	Status     string // pending, paid, registered, failed
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Payer      string
	TxHash     string
	Registrant string // JSON-encoded contact data
	Nonce      string
	Signature  string
}
