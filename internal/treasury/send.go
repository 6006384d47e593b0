package treasury

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SendETH sends native ETH to the recipient. A nil nonce means "query the
// current account nonce"; the payout path always passes an explicit one.
// Returns the transaction hash and settlement block once the transfer is
// confirmed on chain.
func (s *Sender) SendETH(ctx context.Context, recipient string, amount float64, nonce *uint64) (*TransferResult, error) {
	if s.mockMode {
		log.Printf("[MOCK] send_eth: %f ETH -> %s", amount, recipient)
		return &TransferResult{TxHash: MockETHTxHash, BlockNumber: 0}, nil
	}

	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("invalid recipient address: %s", recipient)
	}
	to := common.HexToAddress(recipient)
	value := EtherToWei(amount)

	if nonce == nil {
		n, err := s.backend.PendingNonceAt(ctx, s.address)
		if err != nil {
			return nil, fmt.Errorf("failed to read account nonce: %v", err)
		}
		nonce = &n
	}

	maxFee, tip, err := s.feeCaps(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     *nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       GasLimitETH,
		To:        &to,
		Value:     value,
	})

	result, err := s.broadcastAndWait(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := s.checkReceiptStatus("ETH", result); err != nil {
		return nil, err
	}

	log.Printf("ETH sent: %f -> %s tx=%s", amount, recipient, result.TxHash)
	return &TransferResult{TxHash: result.TxHash, BlockNumber: result.BlockNumber}, nil
}

// SendUSDC sends USDC to the recipient via an ERC-20 transfer call. A nil
// nonce means "query the current account nonce". Returns the transaction
// hash and settlement block once the transfer is confirmed on chain.
func (s *Sender) SendUSDC(ctx context.Context, recipient string, amount float64, nonce *uint64) (*TransferResult, error) {
	if s.mockMode {
		log.Printf("[MOCK] send_usdc: %f USDC -> %s", amount, recipient)
		return &TransferResult{TxHash: MockUSDCTxHash, BlockNumber: 0}, nil
	}

	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("invalid recipient address: %s", recipient)
	}
	to := common.HexToAddress(recipient)
	rawAmount := TokenUnits(amount, s.usdcDecimals)

	data, err := s.erc20.Pack("transfer", to, rawAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer call: %v", err)
	}

	if nonce == nil {
		n, err := s.backend.PendingNonceAt(ctx, s.address)
		if err != nil {
			return nil, fmt.Errorf("failed to read account nonce: %v", err)
		}
		nonce = &n
	}

	maxFee, tip, err := s.feeCaps(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     *nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       GasLimitERC20,
		To:        &s.usdcContract,
		Value:     big.NewInt(0),
		Data:      data,
	})

	result, err := s.broadcastAndWait(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := s.checkReceiptStatus("USDC", result); err != nil {
		return nil, err
	}

	log.Printf("USDC sent: %f -> %s tx=%s", amount, recipient, result.TxHash)
	return &TransferResult{TxHash: result.TxHash, BlockNumber: result.BlockNumber}, nil
}

// settledTransfer carries the receipt fields broadcastAndWait cares about.
type settledTransfer struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// broadcastAndWait signs the transfer, submits it, and blocks until the
// ledger reports a terminal settlement or the confirmation timeout elapses.
// Once submitted the transfer is irrevocably in flight; a local timeout here
// does not recall it.
func (s *Sender) broadcastAndWait(ctx context.Context, tx *types.Transaction) (*settledTransfer, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %v", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %v", err)
	}

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}

	settled := &settledTransfer{
		TxHash: signed.Hash().Hex(),
		Status: receipt.Status,
	}
	if receipt.BlockNumber != nil {
		settled.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return settled, nil
}

func (s *Sender) checkReceiptStatus(asset string, settled *settledTransfer) error {
	if settled.Status != types.ReceiptStatusSuccessful {
		return &SettlementRevertedError{Asset: asset, TxHash: settled.TxHash}
	}
	return nil
}

// waitMined polls for the transaction receipt until it appears or the
// confirmation timeout elapses.
func (s *Sender) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %v", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
