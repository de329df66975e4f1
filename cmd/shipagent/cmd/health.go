// Package cmd - health command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelgate/shipping-agent/pkg/client"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the shipping agent server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := client.New(serverURL, nil)
		status, err := api.Health(context.Background())
		if err != nil {
			return fmt.Errorf("server unreachable at %s: %w", serverURL, err)
		}
		fmt.Printf("Server %s: %s\n", serverURL, status)
		return nil
	},
}
