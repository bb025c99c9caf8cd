package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vendo/pkg/app"
)

var (
	exportHours int
	exportKeep  int
)

// vendo ledger:export
var ledgerExportCmd = &cobra.Command{
	Use:   "ledger:export",
	Short: "Write recent purchases as JSON lines to the storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(func(a *app.Application) error {
			exporter, err := a.Exporter(ctx)
			if err != nil {
				return err
			}

			res, err := exporter.Export(ctx, exportHours)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d purchases to %s\n", res.Count, res.URL)

			if exportKeep > 0 {
				removed, err := exporter.Prune(ctx, exportKeep)
				if err != nil {
					return err
				}
				if removed > 0 {
					fmt.Printf("Pruned %d old exports\n", removed)
				}
			}
			return nil
		})
	},
}

// vendo schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler (recurring ledger export)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(func(a *app.Application) error {
			s, err := a.DefaultScheduler(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Registered scheduled tasks:")
			for _, t := range s.List() {
				fmt.Println("  •", t)
			}

			fmt.Println("Scheduler started. Press Ctrl+C to stop.")
			s.Start(ctx)
			fmt.Println("Scheduler stopped.")
			return nil
		})
	},
}

func init() {
	ledgerExportCmd.Flags().IntVar(&exportHours, "hours", 24, "Export purchases from the last N hours")
	ledgerExportCmd.Flags().IntVar(&exportKeep, "keep", 0, "Keep only the newest N export files (0 keeps all)")
}
