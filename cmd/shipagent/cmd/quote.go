// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelgate/shipping-agent/pkg/client"
)

var (
	itemDescription string
	fromZip         string
	toZip           string
)

// Demo addresses for test-mode quoting; override the zips with flags.
var (
	defaultFrom = client.Address{
		Name:    "John Seller",
		Street1: "123 Seller St",
		City:    "San Francisco",
		State:   "CA",
		Zip:     "94103",
		Country: "US",
	}
	defaultTo = client.Address{
		Name:    "Jane Buyer",
		Street1: "456 Buyer Ave",
		City:    "New York",
		State:   "NY",
		Zip:     "10001",
		Country: "US",
	}
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Parse an item description and fetch shipping quotes",
	Long: `Send an item description to the agent. The agent extracts shipping
attributes (weight, value, fragility), fetches carrier rates, and
recommends one.

Examples:
  shipagent quote
  shipagent quote --item "Two heavy ceramic vases, very fragile"
  shipagent quote --from-zip 94103 --to-zip 10001`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&itemDescription, "item", "i", "A small laptop, about 3 pounds, fairly valuable", "item description in plain English")
	quoteCmd.Flags().StringVar(&fromZip, "from-zip", "", "origin zip code (overrides the demo sender)")
	quoteCmd.Flags().StringVar(&toZip, "to-zip", "", "destination zip code (overrides the demo recipient)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	api, w, err := newClient(ctx)
	if err != nil {
		return err
	}
	if w != nil {
		defer w.Close()
	}

	from, to := defaultFrom, defaultTo
	if fromZip != "" {
		from.Zip = fromZip
	}
	if toZip != "" {
		to.Zip = toZip
	}

	fmt.Printf("Getting quotes for: %s\n\n", itemDescription)

	resp, err := api.GetQuotes(ctx, client.QuoteRequest{
		ItemDescription: itemDescription,
		FromAddress:     from,
		ToAddress:       to,
	})
	if err != nil {
		return err
	}

	printParsedInfo(resp.ParsedInfo)
	printQuotes(resp.Quotes, resp.Recommended)

	fmt.Printf("\nShipment: %s\n", resp.ShipmentID)
	fmt.Println(`Purchase with: shipagent label <rate-id>`)
	return nil
}

func printParsedInfo(info client.ParsedInfo) {
	fmt.Println("Item attributes:")
	fmt.Printf("  Weight:   %g %s\n", info.Weight, info.WeightUnit)
	if info.Value > 0 {
		fmt.Printf("  Value:    $%.2f\n", info.Value)
	}
	if info.Category != "" {
		fmt.Printf("  Category: %s\n", info.Category)
	}
	fmt.Printf("  Fragile:  %t\n", info.Fragile)
	if info.Source == "defaulted" {
		fmt.Println("  (could not parse the description; using safe defaults)")
	}
	fmt.Println()
}

func printQuotes(quotes []client.Quote, recommended *client.Quote) {
	if len(quotes) == 0 {
		fmt.Println("No rates available.")
		return
	}

	fmt.Printf("Found %d rates (cheapest first):\n", len(quotes))
	for i, q := range quotes {
		marker := " "
		if recommended != nil && q.RateID == recommended.RateID {
			marker = "*"
		}
		days := "n/a"
		if q.EstimatedDays > 0 {
			days = fmt.Sprintf("%d days", q.EstimatedDays)
		}
		fmt.Printf("%s %2d. %s %s - $%s %s (%s)\n", marker, i+1, q.Carrier, q.ServiceName, q.Price, q.Currency, days)
		fmt.Printf("       rate: %s\n", q.RateID)
	}
	if recommended != nil {
		fmt.Printf("\nRecommended: %s %s ($%s)\n", recommended.Carrier, recommended.ServiceName, recommended.Price)
	}
}
