package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vendo/pkg/app"
	"github.com/shashiranjanraj/vendo/pkg/dispense"
)

// vendo serve: start the HTTP and gRPC servers.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP API and gRPC health servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

// vendo route:list: print all registered routes. No database is needed.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := app.New(nil, dispense.NewMemoryGuard(0))
		defer a.Close()
		return a.RouteList(os.Stdout)
	},
}

// vendo route:url NAME [key=value...]: print the path of a named route.
var routeURLCmd = &cobra.Command{
	Use:   "route:url NAME [key=value...]",
	Short: "Build the URL of a named route",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]string{}
		for _, kv := range args[1:] {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return fmt.Errorf("parameter %q is not key=value", kv)
			}
			params[key] = value
		}

		a := app.New(nil, dispense.NewMemoryGuard(0))
		defer a.Close()

		u, err := a.RouteURL(args[0], params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}
