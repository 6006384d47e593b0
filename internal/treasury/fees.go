package treasury

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// priorityFeeWei is the fixed minimal priority fee (0.001 gwei) attached to
// every transfer.
var priorityFeeWei = big.NewInt(1_000_000)

// feeCaps computes the EIP-1559 fee parameters from the current network fee
// level: a 2x multiplier over the observed base rate plus the fixed priority
// fee. No negotiation or retry happens if a transfer is rejected for being
// priced too low.
func (s *Sender) feeCaps(ctx context.Context) (maxFee, tip *big.Int, err error) {
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read network fee level: %v", err)
	}

	maxFee = new(big.Int).Mul(gasPrice, big.NewInt(2))
	tip = new(big.Int).Set(priorityFeeWei)
	return maxFee, tip, nil
}

// EtherToWei converts a decimal ETH amount to wei.
func EtherToWei(amount float64) *big.Int {
	wei, _ := new(big.Float).Mul(
		big.NewFloat(amount),
		big.NewFloat(params.Ether),
	).Int(nil)
	return wei
}

// WeiToEther converts wei to a decimal ETH amount, for display only.
func WeiToEther(wei *big.Int) float64 {
	eth, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(params.Ether),
	).Float64()
	return eth
}

// TokenAmount converts raw integer token units to a decimal amount, for
// display only. Stays exact where float64(units.Int64()) would truncate or
// overflow on large balances.
func TokenAmount(units *big.Int, decimals int) float64 {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount, _ := new(big.Float).Quo(
		new(big.Float).SetInt(units),
		new(big.Float).SetInt(scale),
	).Float64()
	return amount
}

// TokenUnits converts a decimal token amount to raw integer units using the
// token's declared decimal scale.
func TokenUnits(amount float64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	units, _ := new(big.Float).Mul(
		big.NewFloat(amount),
		new(big.Float).SetInt(scale),
	).Int(nil)
	return units
}
