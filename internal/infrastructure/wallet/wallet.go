// Package wallet submits and confirms ERC-20 stablecoin payments for the
// CLI. This is the only place a timeout/cancellation policy exists for
// payment confirmation, and it lives client-side.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// transferGasLimit matches the fixed gas the browser flow uses for an
	// ERC-20 transfer.
	transferGasLimit = 100_000

	// Receipt polling: fixed interval, bounded attempts, then a timeout
	// error.
	confirmInterval = time.Second
	confirmAttempts = 30

	usdcDecimals = 6
)

// Function selectors: transfer(address,uint256) and balanceOf(address).
var (
	transferSelector  = []byte{0xa9, 0x05, 0x9c, 0xbb}
	balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}
)

// ErrConfirmationTimeout is returned when a submitted payment is not mined
// within the polling budget.
var ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

// Wallet signs and submits token transfers from a single private key.
type Wallet struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	logger  zerolog.Logger
}

// Dial connects to the RPC endpoint and derives the wallet address from the
// private key (with or without 0x prefix).
func Dial(ctx context.Context, rpcURL, privateKeyHex string, logger zerolog.Logger) (*Wallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	return &Wallet{
		client:  client,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		logger:  logger,
	}, nil
}

func (w *Wallet) Close() { w.client.Close() }

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address { return w.address }

// ChainID returns the connected chain's id.
func (w *Wallet) ChainID() *big.Int { return new(big.Int).Set(w.chainID) }

// EthBalance returns the account's native balance in wei.
func (w *Wallet) EthBalance(ctx context.Context) (*big.Int, error) {
	bal, err := w.client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return nil, fmt.Errorf("eth balance: %w", err)
	}
	return bal, nil
}

// TokenBalance returns the account's balance of the given ERC-20 token in
// atomic units.
func (w *Wallet) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	data := append(append([]byte{}, balanceOfSelector...), common.LeftPadBytes(w.address.Bytes(), 32)...)

	out, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("token balance: %w", err)
	}
	return new(big.Int).SetBytes(out), nil
}

// PayUSDC transfers the dollar amount (e.g. "0.001") of USDC to the
// recipient and returns the transaction hash without waiting for
// confirmation.
func (w *Wallet) PayUSDC(ctx context.Context, token, recipient common.Address, amount string) (common.Hash, error) {
	atomic, err := usdcAtomicUnits(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return w.transferToken(ctx, token, recipient, atomic)
}

func (w *Wallet) transferToken(ctx context.Context, token, recipient common.Address, amount *big.Int) (common.Hash, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	data := append(append([]byte{}, transferSelector...), common.LeftPadBytes(recipient.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)

	tx := types.NewTransaction(nonce, token, big.NewInt(0), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	w.logger.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("token transfer submitted")

	return signed.Hash(), nil
}

// WaitForReceipt polls for the transaction receipt at a fixed interval with
// a bounded attempt count, returning ErrConfirmationTimeout when the budget
// is exhausted.
func (w *Wallet) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for attempt := 0; attempt < confirmAttempts; attempt++ {
		receipt, err := w.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil && receipt.BlockNumber != nil {
			w.logger.Debug().
				Str("tx_hash", txHash.Hex()).
				Uint64("block", receipt.BlockNumber.Uint64()).
				Msg("transaction confirmed")
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			w.logger.Warn().Err(err).Str("tx_hash", txHash.Hex()).Msg("receipt poll failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(confirmInterval):
		}
	}
	return nil, ErrConfirmationTimeout
}

// usdcAtomicUnits converts a dollar string to 6-decimal atomic units.
func usdcAtomicUnits(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(amount), "$"))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return d.Shift(usdcDecimals).Truncate(0).BigInt(), nil
}
