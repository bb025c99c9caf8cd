// Package server runs the HTTP and gRPC listeners and shuts them down
// together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shashiranjanraj/vendo/pkg/grpc"
	"github.com/shashiranjanraj/vendo/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Config holds the listen addresses.
type Config struct {
	HTTPAddr string
	GRPCAddr string
}

// Run listens on both addresses and serves until ctx is cancelled or a
// server fails.
func Run(ctx context.Context, cfg Config, handler http.Handler, rpc *grpc.Server) error {
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("server: listen on %s: %w", cfg.GRPCAddr, err)
	}
	return Serve(ctx, httpLis, grpcLis, handler, rpc)
}

// Serve serves HTTP on httpLis and gRPC on grpcLis. When ctx is done the
// HTTP server drains for up to 10s and gRPC stops gracefully.
func Serve(ctx context.Context, httpLis, grpcLis net.Listener, handler http.Handler, rpc *grpc.Server) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("HTTP server starting", "addr", httpLis.Addr().String())
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := rpc.Serve(grpcLis); err != nil {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("server: shutdown signal received")
	case serveErr = <-errc:
		logger.Error("server: stopped on error", "err", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: http shutdown", "err", err)
		serveErr = errors.Join(serveErr, err)
	}
	rpc.Stop()

	logger.Info("server: stopped")
	return serveErr
}
