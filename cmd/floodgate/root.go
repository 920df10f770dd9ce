package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "floodgate",
	Short: "Floodgate - rate limiting and idempotency service",
	Long: `Floodgate enforces fixed-window rate limits and deduplicates retried
operations over a pluggable counter store.

It provides:
  - Fixed-window quotas per scope (API key, client IP, route)
  - Idempotency-Key response replay for safe client retries
  - In-memory, Redis, and SQLite store backends
  - Configurable fail-open or fail-closed behavior on store outage`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
