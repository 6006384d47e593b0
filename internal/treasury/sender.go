package treasury

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/viper"

	"github.com/cldomains/treasury-wallet/internal/config"
)

// Minimal ERC-20 ABI for transfer + balanceOf
const erc20ABI = `[
  {
    "constant": false,
    "inputs": [
      {"name": "to", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "name": "transfer",
    "outputs": [{"name": "", "type": "bool"}],
    "type": "function"
  },
  {
    "constant": true,
    "inputs": [{"name": "account", "type": "address"}],
    "name": "balanceOf",
    "outputs": [{"name": "", "type": "uint256"}],
    "type": "function"
  }
]`

// Sender signs and broadcasts USDC + ETH transfers from the treasury wallet.
// The mutex serializes payouts so two in-flight payouts can never observe
// overlapping nonces for the sending account.
type Sender struct {
	mockMode       bool
	backend        ChainBackend
	key            *ecdsa.PrivateKey
	address        common.Address
	chainID        *big.Int
	usdcContract   common.Address
	usdcDecimals   int
	erc20          abi.ABI
	confirmTimeout time.Duration

	mu sync.Mutex
}

// NewSender builds a treasury sender from the loaded configuration. Outside
// mock mode a signing key must be present in the environment and the RPC
// endpoint must be dialable.
func NewSender() (*Sender, error) {
	mockMode := viper.GetBool("mock_mode")
	keyHex := config.TreasuryPrivateKey()

	if keyHex == "" && !mockMode {
		return nil, ErrTreasuryNotConfigured
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %v", err)
	}

	s := &Sender{
		mockMode:       mockMode,
		chainID:        big.NewInt(viper.GetInt64("chain_id")),
		usdcContract:   common.HexToAddress(viper.GetString("usdc_contract")),
		usdcDecimals:   viper.GetInt("usdc_decimals"),
		erc20:          parsed,
		confirmTimeout: viper.GetDuration("confirm_timeout"),
	}
	if s.confirmTimeout <= 0 {
		s.confirmTimeout = 60 * time.Second
	}

	if !mockMode {
		client, err := ethclient.Dial(viper.GetString("rpc_url"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RPC endpoint: %v", err)
		}

		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse treasury private key: %v", err)
		}

		s.backend = client
		s.key = key
		s.address = crypto.PubkeyToAddress(key.PublicKey)
	}

	return s, nil
}

// NewSenderWithBackend builds a sender against an already-constructed chain
// backend and key. Used by tests and by callers that manage their own client.
func NewSenderWithBackend(backend ChainBackend, key *ecdsa.PrivateKey, chainID *big.Int,
	usdcContract common.Address, usdcDecimals int, confirmTimeout time.Duration) (*Sender, error) {

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %v", err)
	}

	return &Sender{
		backend:        backend,
		key:            key,
		address:        crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		usdcContract:   usdcContract,
		usdcDecimals:   usdcDecimals,
		erc20:          parsed,
		confirmTimeout: confirmTimeout,
	}, nil
}

// MockMode reports whether external-ledger interactions are stubbed out.
func (s *Sender) MockMode() bool {
	return s.mockMode
}

// Address returns the treasury's sending address. The zero address stands
// in under mock mode.
func (s *Sender) Address() common.Address {
	if s.mockMode {
		return common.Address{}
	}
	return s.address
}
