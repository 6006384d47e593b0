package treasury

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Base mainnet constants
const (
	DefaultChainID      = 8453
	DefaultUSDCContract = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	DefaultUSDCDecimals = 6
	GasLimitERC20       = 100_000
	GasLimitETH         = 21_000
)

// GasHeadroomETH is reserved on top of the ETH transfer amount to cover
// broadcasting both legs of a payout.
const GasHeadroomETH = 0.001

// Deterministic placeholder identifiers returned in mock mode.
var (
	MockETHTxHash  = "0x" + strings.Repeat("b", 64)
	MockUSDCTxHash = "0x" + strings.Repeat("a", 64)
)

// ChainBackend is the subset of the Ethereum JSON-RPC client the treasury
// needs: nonce and balance reads, fee level, contract calls, broadcast and
// receipt polling. *ethclient.Client satisfies it.
type ChainBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TransferResult is the terminal outcome of one confirmed leg.
type TransferResult struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// PayoutResult combines both legs of a completed invite payout.
type PayoutResult struct {
	ETHTxHash  string `json:"eth_tx_hash"`
	USDCTxHash string `json:"usdc_tx_hash"`
	ETHBlock   uint64 `json:"eth_block"`
	USDCBlock  uint64 `json:"usdc_block"`
}
