package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alphadesk",
	Short: "AlphaDesk - next-period stock direction and magnitude prediction",
	Long: `AlphaDesk CLI

Feature engineering over daily OHLCV, parallel training of a
heterogeneous model catalog, validation-based selection with weighted
ensembles, and combined direction/magnitude forecasts.

Usage:
  go run ./cmd/alphadesk [command]

Examples:
  go run ./cmd/alphadesk api
  go run ./cmd/alphadesk train AAPL
  go run ./cmd/alphadesk predict AAPL
  go run ./cmd/alphadesk scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
