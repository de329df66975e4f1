// Package cmd - balance command
package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// USDC on Base Sepolia; override with PAYMENT_TOKEN_CONTRACT.
const defaultUSDCContract = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"

// Funding thresholds below which the wallet likely cannot complete a
// paid purchase flow: 0.001 USDC for the call, ~0.01 ETH for gas.
var (
	minUSDCAtomic = big.NewInt(1000)
	minWeiForGas  = new(big.Int).Mul(big.NewInt(10_000_000), big.NewInt(1_000_000_000)) // 0.01 ETH
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the payment wallet's ETH and USDC balances",
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	w, err := dialWallet(ctx)
	if err != nil {
		return fmt.Errorf("opening wallet: %w", err)
	}
	if w == nil {
		return fmt.Errorf("WALLET_PRIVATE_KEY is not set")
	}
	defer w.Close()

	usdcContract := os.Getenv("PAYMENT_TOKEN_CONTRACT")
	if usdcContract == "" {
		usdcContract = defaultUSDCContract
	}

	eth, err := w.EthBalance(ctx)
	if err != nil {
		return fmt.Errorf("fetching ETH balance: %w", err)
	}
	usdc, err := w.TokenBalance(ctx, common.HexToAddress(usdcContract))
	if err != nil {
		return fmt.Errorf("fetching USDC balance: %w", err)
	}

	fmt.Printf("Wallet:  %s\n", w.Address().Hex())
	fmt.Printf("Chain:   %s\n", w.ChainID())
	fmt.Printf("ETH:     %s\n", formatUnits(eth, 18))
	fmt.Printf("USDC:    %s\n", formatUnits(usdc, 6))

	if usdc.Cmp(minUSDCAtomic) < 0 {
		fmt.Println("\nWarning: USDC balance is below one call's price; fund the wallet before quoting.")
	}
	if eth.Cmp(minWeiForGas) < 0 {
		fmt.Println("Warning: ETH balance may be too low to cover transfer gas.")
	}
	return nil
}

func formatUnits(atomic *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(atomic, -decimals).String()
}
