// Package grpc runs the gRPC side of vendo: the standard health service,
// so load balancers and orchestrators can probe the machine backend, plus
// reflection for grpcurl.
//
// Every unary call goes through panic recovery, request logging and
// Prometheus metrics.
//
//	srv := grpc.New(db.Ping)
//	lis, err := srv.Listen(config.GRPCPort())
//	// ...run until signal...
//	srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
)

// ServiceName is the health-check service name for the purchase API.
const ServiceName = "vendo.Purchases"

// ─── Prometheus metrics ───────────────────────────────────────────────────────

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vendo",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "Total number of gRPC calls completed by method and code.",
	}, []string{"grpc_method", "grpc_code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vendo",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "Histogram of gRPC response latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"grpc_method"})
)

func init() {
	metrics.MustRegister(requestsTotal, requestDuration)
}

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// observeInterceptor logs and records metrics for each unary RPC.
func observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)

	code := status.Code(err)

	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", dur.Milliseconds(),
		"code", code.String(),
	)
	requestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	requestDuration.WithLabelValues(info.FullMethod).Observe(dur.Seconds())
	return resp, err
}

// ─── Health service ───────────────────────────────────────────────────────────

// Checker reports whether the backend can serve purchases.
type Checker func(ctx context.Context) error

type healthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	check Checker
}

func (h *healthServer) status(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	if service != "" && service != ServiceName {
		return 0, status.Errorf(codes.NotFound, "unknown service %q", service)
	}
	if h.check != nil {
		if err := h.check(ctx); err != nil {
			logger.Warn("grpc: health check failing", "err", err)
			return grpc_health_v1.HealthCheckResponse_NOT_SERVING, nil
		}
	}
	return grpc_health_v1.HealthCheckResponse_SERVING, nil
}

func (h *healthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	st, err := h.status(ctx, req.GetService())
	if err != nil {
		return nil, err
	}
	return &grpc_health_v1.HealthCheckResponse{Status: st}, nil
}

func (h *healthServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	st, err := h.status(stream.Context(), req.GetService())
	if err != nil {
		return err
	}
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: st})
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Server wraps a *grpc.Server with health and reflection registered.
type Server struct {
	srv *grpc.Server
}

// New builds the server. check may be nil.
func New(check Checker) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(1*1024*1024),
		grpc.MaxSendMsgSize(1*1024*1024),
	)

	grpc_health_v1.RegisterHealthServer(srv, &healthServer{check: check})
	reflection.Register(srv)

	return &Server{srv: srv}
}

// Serve accepts connections on lis until Stop. It blocks.
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC server starting", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc: serve: %w", err)
	}
	return nil
}

// Listen opens the TCP listener for port.
func Listen(port string) (net.Listener, error) {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	return lis, nil
}

// Stop waits for in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	logger.Info("gRPC server shutting down")
	s.srv.GracefulStop()
}
