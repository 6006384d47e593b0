package treasury

import (
	"context"
	"fmt"
	"log"
)

// SendInvitePayout sends both ETH (for gas) and USDC to a recipient.
//
// The ETH leg always goes first so the recipient has gas for future
// transactions before receiving the token. The account nonce is queried
// exactly once and the second leg uses nonce+1, so the legs can be
// submitted back-to-back without waiting for the first to confirm and can
// never collide on an ordering value. The sender mutex serializes the whole
// query-nonce/leg-one/leg-two sequence, keeping at most one payout in
// flight per sending account.
func (s *Sender) SendInvitePayout(ctx context.Context, recipient string, usdcAmount, ethAmount float64) (*PayoutResult, error) {
	if s.mockMode {
		ethResult, err := s.SendETH(ctx, recipient, ethAmount, nil)
		if err != nil {
			return nil, err
		}
		usdcResult, err := s.SendUSDC(ctx, recipient, usdcAmount, nil)
		if err != nil {
			return nil, err
		}
		return &PayoutResult{
			ETHTxHash:  ethResult.TxHash,
			USDCTxHash: usdcResult.TxHash,
			ETHBlock:   ethResult.BlockNumber,
			USDCBlock:  usdcResult.BlockNumber,
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Pre-flight balance check
	if err := s.checkBalances(ctx, usdcAmount, ethAmount); err != nil {
		return nil, err
	}

	// Get nonce once, increment for second tx
	nonce, err := s.backend.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to read account nonce: %v", err)
	}
	ethNonce := nonce
	usdcNonce := nonce + 1

	// Send ETH first (user needs gas)
	ethResult, err := s.SendETH(ctx, recipient, ethAmount, &ethNonce)
	if err != nil {
		return nil, fmt.Errorf("ETH leg failed: %w", err)
	}

	// Send USDC with next nonce
	usdcResult, err := s.SendUSDC(ctx, recipient, usdcAmount, &usdcNonce)
	if err != nil {
		log.Printf("USDC leg failed after ETH leg settled (eth_tx=%s): %v", ethResult.TxHash, err)
		return nil, &PartialPayoutError{
			ETHTxHash: ethResult.TxHash,
			ETHBlock:  ethResult.BlockNumber,
			Err:       err,
		}
	}

	return &PayoutResult{
		ETHTxHash:  ethResult.TxHash,
		USDCTxHash: usdcResult.TxHash,
		ETHBlock:   ethResult.BlockNumber,
		USDCBlock:  usdcResult.BlockNumber,
	}, nil
}
