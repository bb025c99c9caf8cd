package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vendo/pkg/app"
)

// withApp boots the application, runs fn and closes it.
func withApp(fn func(a *app.Application) error) error {
	a, err := app.Boot(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// vendo migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			fmt.Println("Running migrations…")
			return a.Migrate(os.Stdout)
		})
	},
}

// vendo migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			fmt.Println("Rolling back last batch…")
			return a.Rollback(os.Stdout)
		})
	},
}

// vendo migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			return a.MigrateStatus(os.Stdout)
		})
	},
}

// vendo seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the product catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			fmt.Println("Running seeders…")
			return a.Seed(os.Stdout)
		})
	},
}
