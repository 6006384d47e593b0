package treasury

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const testRecipient = "0x1111111111111111111111111111111111111111"

// fakeBackend is an in-memory ChainBackend with instant settlement.
type fakeBackend struct {
	mu sync.Mutex

	nonce       uint64
	ethBalance  *big.Int
	usdcBalance *big.Int
	gasPrice    *big.Int

	sent    []*types.Transaction
	byHash  map[common.Hash]*types.Transaction
	reverts map[uint64]bool  // nonce -> receipt reports failure
	refuse  map[uint64]error // nonce -> SendTransaction error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		ethBalance:  EtherToWei(1.0),
		usdcBalance: TokenUnits(100, DefaultUSDCDecimals),
		gasPrice:    big.NewInt(1_000_000_000), // 1 gwei
		byHash:      make(map[common.Hash]*types.Transaction),
		reverts:     make(map[uint64]bool),
		refuse:      make(map[uint64]error),
	}
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.ethBalance), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// The only contract call made is balanceOf
	return common.LeftPadBytes(b.usdcBalance.Bytes(), 32), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.refuse[tx.Nonce()]; ok {
		return err
	}
	b.sent = append(b.sent, tx)
	b.byHash[tx.Hash()] = tx
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, ok := b.byHash[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	status := types.ReceiptStatusSuccessful
	if b.reverts[tx.Nonce()] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(int64(1000 + tx.Nonce())),
	}, nil
}

func newTestSender(t *testing.T, backend ChainBackend) *Sender {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender, err := NewSenderWithBackend(backend, key, big.NewInt(DefaultChainID),
		common.HexToAddress(DefaultUSDCContract), DefaultUSDCDecimals, 5*time.Second)
	require.NoError(t, err)
	return sender
}

func TestPayoutNonceOrderingAndLegs(t *testing.T) {
	backend := newFakeBackend()
	backend.nonce = 7
	sender := newTestSender(t, backend)

	result, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)
	require.NoError(t, err)

	require.Len(t, backend.sent, 2)
	ethTx, usdcTx := backend.sent[0], backend.sent[1]

	// ETH leg first, with consecutive nonces from a single query
	require.Equal(t, uint64(7), ethTx.Nonce())
	require.Equal(t, uint64(8), usdcTx.Nonce())

	require.Equal(t, common.HexToAddress(testRecipient), *ethTx.To())
	require.Equal(t, EtherToWei(0.001), ethTx.Value())
	require.EqualValues(t, GasLimitETH, ethTx.Gas())

	require.Equal(t, common.HexToAddress(DefaultUSDCContract), *usdcTx.To())
	require.EqualValues(t, GasLimitERC20, usdcTx.Gas())
	// transfer(address,uint256) selector
	require.Equal(t, "a9059cbb", hex.EncodeToString(usdcTx.Data()[:4]))

	require.Equal(t, ethTx.Hash().Hex(), result.ETHTxHash)
	require.Equal(t, usdcTx.Hash().Hex(), result.USDCTxHash)
	require.EqualValues(t, 1007, result.ETHBlock)
	require.EqualValues(t, 1008, result.USDCBlock)
}

func TestPayoutFeeParameters(t *testing.T) {
	backend := newFakeBackend()
	backend.gasPrice = big.NewInt(5_000_000_000)
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)
	require.NoError(t, err)

	for _, tx := range backend.sent {
		require.Equal(t, big.NewInt(10_000_000_000), tx.GasFeeCap(), "2x the observed base rate")
		require.Equal(t, big.NewInt(1_000_000), tx.GasTipCap(), "fixed 0.001 gwei priority fee")
	}
}

func TestBalanceGuardRejectsUSDCBeforeSubmission(t *testing.T) {
	backend := newFakeBackend()
	backend.usdcBalance = TokenUnits(0.5, DefaultUSDCDecimals)
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)

	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "USDC", insufficient.Asset)
	require.Equal(t, TokenUnits(0.5, DefaultUSDCDecimals), insufficient.Have)
	require.Equal(t, TokenUnits(1.0, DefaultUSDCDecimals), insufficient.Need)
	require.Empty(t, backend.sent, "no submission side effects on a failed pre-flight check")
}

func TestBalanceGuardReservesGasHeadroom(t *testing.T) {
	backend := newFakeBackend()
	// Enough for the transfer itself but not for the gas headroom
	backend.ethBalance = EtherToWei(0.001)
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)

	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "ETH", insufficient.Asset)
	require.Equal(t, EtherToWei(0.002), insufficient.Need)
	require.Empty(t, backend.sent)
}

func TestETHLegRevertStopsPayout(t *testing.T) {
	backend := newFakeBackend()
	backend.reverts[0] = true
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)

	var reverted *SettlementRevertedError
	require.ErrorAs(t, err, &reverted)
	require.Equal(t, "ETH", reverted.Asset)
	require.Len(t, backend.sent, 1, "USDC leg must never be attempted after an ETH revert")
}

func TestUSDCLegRevertSurfacesPartialPayout(t *testing.T) {
	backend := newFakeBackend()
	backend.reverts[1] = true
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)

	var partial *PartialPayoutError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, backend.sent[0].Hash().Hex(), partial.ETHTxHash)
	require.EqualValues(t, 1000, partial.ETHBlock)

	var reverted *SettlementRevertedError
	require.ErrorAs(t, partial.Err, &reverted)
	require.Equal(t, "USDC", reverted.Asset)
}

func TestUSDCLegSubmissionFailureSurfacesPartialPayout(t *testing.T) {
	backend := newFakeBackend()
	backend.refuse[1] = errors.New("nonce too low")
	sender := newTestSender(t, backend)

	_, err := sender.SendInvitePayout(context.Background(), testRecipient, 1.0, 0.001)

	var partial *PartialPayoutError
	require.ErrorAs(t, err, &partial)
	require.NotEmpty(t, partial.ETHTxHash)
	// A submission-level failure carries no transaction identifier
	var reverted *SettlementRevertedError
	require.False(t, errors.As(partial.Err, &reverted))
	require.Len(t, backend.sent, 1)
}

func TestMockModePayout(t *testing.T) {
	viper.Set("mock_mode", true)
	viper.Set("chain_id", DefaultChainID)
	viper.Set("usdc_contract", DefaultUSDCContract)
	viper.Set("usdc_decimals", DefaultUSDCDecimals)
	t.Cleanup(func() { viper.Set("mock_mode", false) })

	sender, err := NewSender()
	require.NoError(t, err)
	require.True(t, sender.MockMode())
	require.Equal(t, common.Address{}, sender.Address())

	result, err := sender.SendInvitePayout(context.Background(), "0xABC", 1.0, 0.001)
	require.NoError(t, err)
	require.Equal(t, MockETHTxHash, result.ETHTxHash)
	require.Equal(t, MockUSDCTxHash, result.USDCTxHash)
	require.EqualValues(t, 0, result.ETHBlock)
	require.EqualValues(t, 0, result.USDCBlock)
}

func TestAmountConversions(t *testing.T) {
	require.Equal(t, big.NewInt(1_000_000_000_000_000), EtherToWei(0.001))
	require.Equal(t, big.NewInt(1_000_000), TokenUnits(1.0, 6))
	require.Equal(t, big.NewInt(250_000), TokenUnits(0.25, 6))
	require.InDelta(t, 0.001, WeiToEther(big.NewInt(1_000_000_000_000_000)), 1e-12)

	require.InDelta(t, 1.5, TokenAmount(big.NewInt(1_500_000), 6), 1e-12)

	// Balances past the int64 range must still convert without truncation.
	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)
	require.InDelta(t, 1e13, TokenAmount(huge, 6), 1)
}
