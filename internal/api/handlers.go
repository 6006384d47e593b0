package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	invitestatedb "github.com/cldomains/treasury-wallet/internal/database"
	"github.com/cldomains/treasury-wallet/internal/metrics"
	"github.com/cldomains/treasury-wallet/internal/redemption"
	"github.com/cldomains/treasury-wallet/internal/treasury"
)

func NewAPI(sender *treasury.Sender) *API {
	return &API{Treasury: sender}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// RedeemInviteHandler runs the whole redemption protocol: the local atomic
// gate first, the two-leg payout second, leg hash recording last. The gate
// decision is durably recorded before the irreversible external side effect
// ever runs.
func (a *API) RedeemInviteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Wallet == "" {
		http.Error(w, "code and wallet are required", http.StatusBadRequest)
		return
	}

	granted, reason, err := redemption.Redeem(req.Code, req.Wallet)
	if err != nil {
		log.Printf("Redemption gate error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !granted {
		metrics.RedemptionsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
		writeJSON(w, http.StatusOK, RedeemResponse{Granted: false, Reason: string(reason)})
		return
	}
	metrics.RedemptionsTotal.WithLabelValues(metrics.OutcomeGranted).Inc()

	// The gate transition is durable; re-read the record for the payout
	// amounts attached to this code.
	invite, err := invitestatedb.GetInviteCode(req.Code)
	if err != nil || invite == nil {
		log.Printf("Failed to reload invite %s after gate win: %v", req.Code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	result, err := a.Treasury.SendInvitePayout(r.Context(), req.Wallet, invite.AmountUSDC, invite.AmountETH)
	if err != nil {
		a.respondPayoutFailure(w, invite.Code, err)
		return
	}

	metrics.PayoutsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if err := invitestatedb.RecordETHLeg(invite.Code, result.ETHTxHash); err != nil {
		log.Printf("Failed to record ETH leg for %s: %v", invite.Code, err)
	}
	if err := invitestatedb.RecordUSDCLeg(invite.Code, result.USDCTxHash); err != nil {
		log.Printf("Failed to record USDC leg for %s: %v", invite.Code, err)
	}

	writeJSON(w, http.StatusOK, RedeemResponse{
		Granted:    true,
		ETHTxHash:  result.ETHTxHash,
		USDCTxHash: result.USDCTxHash,
		ETHBlock:   result.ETHBlock,
		USDCBlock:  result.USDCBlock,
	})
}

// respondPayoutFailure classifies a payout failure after a won gate. The
// code stays consumed either way; a partial payout keeps the settled ETH leg
// hash on the record with the USDC leg absent, so the state stays
// inspectable for reconciliation.
func (a *API) respondPayoutFailure(w http.ResponseWriter, code string, err error) {
	var partial *treasury.PartialPayoutError
	if errors.As(err, &partial) {
		metrics.PayoutsTotal.WithLabelValues(metrics.OutcomePartial).Inc()
		if recErr := invitestatedb.RecordETHLeg(code, partial.ETHTxHash); recErr != nil {
			log.Printf("Failed to record ETH leg for %s: %v", code, recErr)
		}
		log.Printf("Partial payout for %s: %v", code, err)
		writeJSON(w, http.StatusBadGateway, RedeemResponse{
			Granted:   true,
			ETHTxHash: partial.ETHTxHash,
			ETHBlock:  partial.ETHBlock,
			Message:   "USDC transfer failed after ETH transfer settled; contact support with your code",
		})
		return
	}

	metrics.PayoutsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	log.Printf("Payout failed for %s: %v", code, err)

	var insufficient *treasury.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusServiceUnavailable, RedeemResponse{
			Granted: true,
			Message: "treasury balance too low; contact support with your code",
		})
		return
	}

	var reverted *treasury.SettlementRevertedError
	message := "payout failed; contact support with your code"
	if errors.As(err, &reverted) {
		message = fmt.Sprintf("%s transfer reverted (%s); contact support with your code",
			reverted.Asset, reverted.TxHash)
	}
	writeJSON(w, http.StatusBadGateway, RedeemResponse{
		Granted: true,
		Message: message,
	})
}

// InviteStatusHandler reports the redemption state of a code without
// leaking the redeeming wallet.
func (a *API) InviteStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	invite, err := invitestatedb.GetInviteCode(code)
	if err != nil {
		log.Printf("Failed to look up invite %q: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if invite == nil {
		http.Error(w, "Invite code not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, InviteStatusResponse{
		Code:       invite.Code,
		Active:     invite.IsActive,
		Redeemed:   invite.Redeemed(),
		AmountUSDC: invite.AmountUSDC,
		AmountETH:  invite.AmountETH,
		ExpiresAt:  invite.ExpiresAt,
	})
}

// CreateInviteHandler provisions a new invite code. JWT-protected.
func (a *API) CreateInviteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	if req.AmountUSDC <= 0 {
		req.AmountUSDC = 1.0
	}
	if req.AmountETH <= 0 {
		req.AmountETH = 0.001
	}

	if err := invitestatedb.CreateInviteCode(req.Code, req.AmountUSDC, req.AmountETH, req.ExpiresAt); err != nil {
		log.Printf("Failed to create invite code %q: %v", req.Code, err)
		http.Error(w, "Failed to create invite code", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"code": req.Code, "status": "created"})
}

// DomainsHandler lists the domains owned by a wallet.
func (a *API) DomainsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		http.Error(w, "wallet is required", http.StatusBadRequest)
		return
	}

	domains, err := invitestatedb.GetDomainsByWallet(wallet)
	if err != nil {
		log.Printf("Failed to list domains for %s: %v", wallet, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, domains)
}
