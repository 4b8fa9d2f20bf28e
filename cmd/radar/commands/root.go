package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Market Radar - returns and rankings for a universe of assets",
	Long: `Market Radar CLI

Fetches closing prices for every asset in the universe, computes daily,
weekly and monthly returns, ranks movers and sectors and publishes the
results as JSON for the dashboard API.

Usage:
  go run ./cmd/radar [command]

Examples:
  go run ./cmd/radar api
  go run ./cmd/radar pipeline run
  go run ./cmd/radar scheduler list
  go run ./cmd/radar snapshot changes -n 10`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
