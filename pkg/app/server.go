package app

import (
	"context"

	"github.com/shashiranjanraj/vendo/config"
	"github.com/shashiranjanraj/vendo/internal/server"
	"github.com/shashiranjanraj/vendo/pkg/grpc"
)

// Serve runs the HTTP API on APP_PORT and the gRPC health service on
// GRPC_PORT until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	k, err := a.Kernel()
	if err != nil {
		return err
	}
	defer k.Close()

	return server.Run(ctx, server.Config{
		HTTPAddr: ":" + config.AppPort(),
		GRPCAddr: ":" + config.GRPCPort(),
	}, k.Handler(), grpc.New(a.Check))
}
