// Package main is the entry point for the shipagent CLI.
package main

import (
	"os"

	"github.com/parcelgate/shipping-agent/cmd/shipagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
