package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vendo",
	Short:         "vendo: vending machine purchase backend",
	Long:          "vendo serves the vending API and manages its database, seed data and ledger exports.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(routeURLCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Ledger
	rootCmd.AddCommand(ledgerExportCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
