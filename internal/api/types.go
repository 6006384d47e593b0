package api

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/cldomains/treasury-wallet/internal/treasury"
)

type API struct {
	Treasury *treasury.Sender
}

type RedeemRequest struct {
	Code   string `json:"code"`
	Wallet string `json:"wallet"`
}

type RedeemResponse struct {
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason,omitempty"`
	ETHTxHash  string `json:"eth_tx_hash,omitempty"`
	USDCTxHash string `json:"usdc_tx_hash,omitempty"`
	ETHBlock   uint64 `json:"eth_block,omitempty"`
	USDCBlock  uint64 `json:"usdc_block,omitempty"`
	Message    string `json:"message,omitempty"`
}

type InviteStatusResponse struct {
	Code       string     `json:"code"`
	Active     bool       `json:"active"`
	Redeemed   bool       `json:"redeemed"`
	AmountUSDC float64    `json:"amount_usdc"`
	AmountETH  float64    `json:"amount_eth"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type CreateInviteRequest struct {
	Code       string     `json:"code"`
	AmountUSDC float64    `json:"amount_usdc"`
	AmountETH  float64    `json:"amount_eth"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type Claims struct {
	jwt.RegisteredClaims
}
