// Package cmd provides the CLI commands for shipagent.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/parcelgate/shipping-agent/internal/infrastructure/wallet"
	"github.com/parcelgate/shipping-agent/pkg/client"
	"github.com/parcelgate/shipping-agent/pkg/logger"
)

var (
	serverURL string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shipagent",
	Short: "Quote and purchase shipping labels through the shipping agent",
	Long: `shipagent talks to a shipping agent server: it describes an item in
plain English, fetches carrier quotes, and purchases labels. Gated calls
are paid automatically in USDC from the configured wallet.

Environment:
  WALLET_PRIVATE_KEY  hex private key used to pay for gated calls
  RPC_URL             JSON-RPC endpoint (default https://sepolia.base.org)

Examples:
  shipagent quote --item "A small laptop, about 3 pounds, fairly valuable"
  shipagent label <rate-id>
  shipagent balance`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "shipping agent base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(healthCmd)
}

func initLogging() {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr})
}

func rpcURL() string {
	if v := os.Getenv("RPC_URL"); v != "" {
		return v
	}
	return "https://sepolia.base.org"
}

// dialWallet opens the payment wallet from WALLET_PRIVATE_KEY. Returns nil
// without error when no key is configured; callers then run unauthenticated
// and surface the server's 402 instead of paying.
func dialWallet(ctx context.Context) (*wallet.Wallet, error) {
	key := os.Getenv("WALLET_PRIVATE_KEY")
	if key == "" {
		return nil, nil
	}
	return wallet.Dial(ctx, rpcURL(), key, logger.Get())
}

// walletPayer adapts the on-chain wallet to the client's Payer interface:
// send the USDC transfer, wait for the receipt, hand back the tx hash.
type walletPayer struct {
	wallet *wallet.Wallet
}

func (p *walletPayer) Pay(ctx context.Context, req client.PaymentRequired) (string, error) {
	if !common.IsHexAddress(req.Recipient) {
		return "", fmt.Errorf("challenge has invalid recipient address %q", req.Recipient)
	}
	if !common.IsHexAddress(req.USDCContract) {
		return "", fmt.Errorf("challenge has invalid token contract %q", req.USDCContract)
	}

	fmt.Printf("Payment required: %s %s on %s\n", req.Amount, req.Currency, req.Network)

	txHash, err := p.wallet.PayUSDC(ctx,
		common.HexToAddress(req.USDCContract),
		common.HexToAddress(req.Recipient),
		req.Amount)
	if err != nil {
		return "", err
	}

	fmt.Printf("Payment sent: %s (waiting for confirmation)\n", txHash.Hex())
	if _, err := p.wallet.WaitForReceipt(ctx, txHash); err != nil {
		return "", err
	}
	fmt.Println("Payment confirmed")

	return txHash.Hex(), nil
}

// newClient builds the API client, with a payer when a wallet is configured.
func newClient(ctx context.Context) (*client.Client, *wallet.Wallet, error) {
	w, err := dialWallet(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening wallet: %w", err)
	}

	var payer client.Payer
	if w != nil {
		payer = &walletPayer{wallet: w}
	}
	return client.New(strings.TrimSpace(serverURL), payer), w, nil
}
