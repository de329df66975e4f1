// Package cmd - label command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelgate/shipping-agent/pkg/client"
)

var (
	labelCarrier string
	labelService string
	labelPrice   string
)

// labelCmd represents the label command
var labelCmd = &cobra.Command{
	Use:   "label <rate-id>",
	Short: "Purchase a shipping label for a quoted rate",
	Long: `Buy the label for a rate returned by "shipagent quote". The purchase
is a gated call: the CLI pays the agent's USDC price on-chain before the
label is issued.

Examples:
  shipagent label 5e40ead7cffa4cc1ad45108696162e42
  shipagent label 5e40ead7cffa4cc1ad45108696162e42 --carrier USPS --service "Priority Mail"`,
	Args: cobra.ExactArgs(1),
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().StringVar(&labelCarrier, "carrier", "", "carrier name to echo in the confirmation")
	labelCmd.Flags().StringVar(&labelService, "service", "", "service name to echo in the confirmation")
	labelCmd.Flags().StringVar(&labelPrice, "price", "", "rate price to echo in the confirmation")
}

func runLabel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	api, w, err := newClient(ctx)
	if err != nil {
		return err
	}
	if w != nil {
		defer w.Close()
	}

	resp, err := api.PurchaseLabel(ctx, client.LabelRequest{
		RateID:  args[0],
		Carrier: labelCarrier,
		Service: labelService,
		Price:   labelPrice,
	})
	if err != nil {
		return err
	}

	fmt.Println("Label purchased!")
	fmt.Printf("  Carrier:  %s %s\n", resp.Label.Carrier, resp.Label.Service)
	fmt.Printf("  Cost:     $%s\n", resp.Label.Cost)
	fmt.Printf("  Tracking: %s\n", resp.Label.TrackingNumber)
	fmt.Printf("  Label:    %s\n", resp.Label.LabelURL)
	if resp.Label.PaymentTxHash != "" {
		fmt.Printf("  Paid via: %s\n", resp.Label.PaymentTxHash)
	}
	return nil
}
