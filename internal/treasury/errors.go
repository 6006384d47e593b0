package treasury

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrTreasuryNotConfigured means no signing key is available outside mock
// mode. Fatal at startup, not per-request.
var ErrTreasuryNotConfigured = errors.New("TREASURY_PRIVATE_KEY not set")

// InsufficientBalanceError is raised by the pre-flight balance check before
// any transfer is constructed.
type InsufficientBalanceError struct {
	Asset string
	Have  *big.Int
	Need  *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s: have %s, need %s (raw units)",
		e.Asset, e.Have.String(), e.Need.String())
}

// SettlementRevertedError means a submitted transfer was accepted into a
// block but executed with a failure status. The transaction identifier is
// carried so the caller can inspect it externally.
type SettlementRevertedError struct {
	Asset  string
	TxHash string
}

func (e *SettlementRevertedError) Error() string {
	return fmt.Sprintf("%s transfer reverted: %s", e.Asset, e.TxHash)
}

// PartialPayoutError means the ETH leg settled but the USDC leg failed.
// The ETH transaction identifier is preserved so the partial state stays
// inspectable and reconcilable.
type PartialPayoutError struct {
	ETHTxHash string
	ETHBlock  uint64
	Err       error
}

func (e *PartialPayoutError) Error() string {
	return fmt.Sprintf("USDC leg failed after ETH leg settled (eth_tx=%s): %v",
		e.ETHTxHash, e.Err)
}

func (e *PartialPayoutError) Unwrap() error {
	return e.Err
}
