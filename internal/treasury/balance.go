package treasury

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// checkBalances verifies the treasury holds enough USDC and ETH before any
// transfer is constructed. The ETH check reserves GasHeadroomETH beyond the
// transfer amount to cover broadcasting both legs. This is a point-in-time
// read with no locking: the balance can still drift between check and send,
// so broadcast-time failures remain possible and are handled per leg.
func (s *Sender) checkBalances(ctx context.Context, usdcAmount, ethAmount float64) error {
	if s.mockMode {
		return nil
	}

	usdcRaw := TokenUnits(usdcAmount, s.usdcDecimals)
	usdcBalance, err := s.usdcBalanceOf(ctx, s.address)
	if err != nil {
		return fmt.Errorf("failed to read USDC balance: %v", err)
	}
	if usdcBalance.Cmp(usdcRaw) < 0 {
		return &InsufficientBalanceError{Asset: "USDC", Have: usdcBalance, Need: usdcRaw}
	}

	ethRaw := EtherToWei(ethAmount)
	// Need enough for the ETH transfer + gas for both txs
	ethNeed := new(big.Int).Add(ethRaw, EtherToWei(GasHeadroomETH))
	ethBalance, err := s.backend.BalanceAt(ctx, s.address, nil)
	if err != nil {
		return fmt.Errorf("failed to read ETH balance: %v", err)
	}
	if ethBalance.Cmp(ethNeed) < 0 {
		return &InsufficientBalanceError{Asset: "ETH", Have: ethBalance, Need: ethNeed}
	}

	return nil
}

// Balances returns the treasury's current ETH (wei) and USDC (raw units)
// holdings. Mock mode reports zero for both.
func (s *Sender) Balances(ctx context.Context) (ethWei, usdcUnits *big.Int, err error) {
	if s.mockMode {
		return big.NewInt(0), big.NewInt(0), nil
	}

	ethWei, err = s.backend.BalanceAt(ctx, s.address, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ETH balance: %v", err)
	}

	usdcUnits, err = s.usdcBalanceOf(ctx, s.address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read USDC balance: %v", err)
	}

	return ethWei, usdcUnits, nil
}

// usdcBalanceOf reads the token balance of an account via eth_call.
func (s *Sender) usdcBalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := s.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %v", err)
	}

	out, err := s.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &s.usdcContract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	results, err := s.erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %v", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}

	return balance, nil
}
