package redemption

import (
	"log"
	"time"

	invitestatedb "github.com/cldomains/treasury-wallet/internal/database"
)

// DenialReason says why a redemption attempt was rejected. Every reason maps
// to granted=false for the caller; they are distinguished for logging.
type DenialReason string

const (
	DenialNone            DenialReason = ""
	DenialCodeNotFound    DenialReason = "code_not_found"
	DenialCodeInactive    DenialReason = "code_inactive"
	DenialCodeExpired     DenialReason = "code_expired"
	DenialAlreadyRedeemed DenialReason = "already_redeemed"
	DenialWalletRedeemed  DenialReason = "wallet_already_redeemed"
)

// Redeem admits or rejects a redemption attempt. The cheap pre-checks
// (existence, active flag, expiry, prior wallet redemption) produce the
// denial reason; the actual admission decision is the single atomic
// conditional update in the store, which both the unredeemed condition and
// the one-redemption-per-wallet rule are folded into. A request that loses
// the race between pre-check and update comes back granted=false.
//
// Redeem must run, and its record-write must be durable, before any payout
// is attempted. It never retries and has no side effects beyond the one
// record update.
func Redeem(code string, wallet string) (bool, DenialReason, error) {
	invite, err := invitestatedb.GetInviteCode(code)
	if err != nil {
		return false, DenialNone, err
	}
	if invite == nil {
		log.Printf("Redemption denied: code %q not found", code)
		return false, DenialCodeNotFound, nil
	}
	if !invite.IsActive {
		log.Printf("Redemption denied: code %s is inactive", invite.Code)
		return false, DenialCodeInactive, nil
	}
	if invite.Expired(time.Now().UTC()) {
		log.Printf("Redemption denied: code %s expired at %s", invite.Code, invite.ExpiresAt)
		return false, DenialCodeExpired, nil
	}
	if invite.Redeemed() {
		log.Printf("Redemption denied: code %s already redeemed", invite.Code)
		return false, DenialAlreadyRedeemed, nil
	}

	hasRedeemed, err := invitestatedb.HasWalletRedeemedInvite(wallet)
	if err != nil {
		return false, DenialNone, err
	}
	if hasRedeemed {
		log.Printf("Redemption denied: wallet %s already redeemed an invite", wallet)
		return false, DenialWalletRedeemed, nil
	}

	granted, err := invitestatedb.MarkInviteRedeemed(code, wallet)
	if err != nil {
		return false, DenialNone, err
	}
	if !granted {
		// Lost the race between pre-check and the conditional update.
		log.Printf("Redemption denied: code %s was redeemed concurrently", invite.Code)
		return false, DenialAlreadyRedeemed, nil
	}

	log.Printf("Invite %s redeemed by %s", invite.Code, wallet)
	return true, DenialNone, nil
}
