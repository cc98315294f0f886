// Package server provides gRPC server lifecycle management for the
// mapping-rules service and its metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/solatis/vesmapper/internal/core/api"
	"github.com/solatis/vesmapper/internal/core/config"
)

const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server        *grpc.Server
	health        *health.Server
	metricsServer *http.Server
	listener      net.Listener
	config        config.ServerConfig
	logger        *slog.Logger
}

// NewGRPCServer creates gRPC server with logging, metrics and deadline
// interceptors and registers the mapping-rules and health services.
func NewGRPCServer(cfg config.ServerConfig, service api.MappingRulesServer, metrics *api.Metrics, logger *slog.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	opts := []grpc.ServerOption{
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			metricsInterceptor(metrics),
			timeoutInterceptor(cfg.RequestTimeout),
		),
	}

	server := grpc.NewServer(opts...)
	api.RegisterMappingRulesServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s := &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}

	if metrics != nil && cfg.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metricsServer = &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.MetricsPort)),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// Start binds listener and serves gRPC requests.
// Context is provided for API consistency but Serve blocks until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener

	if s.metricsServer != nil {
		go func() {
			s.logger.Info("starting metrics server", "addr", s.metricsServer.Addr)
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	s.logger.Info("serving mapping rules", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown gracefully stops server with 30-second timeout.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	if s.metricsServer != nil {
		mctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := s.metricsServer.Shutdown(mctx); err != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

// loggingInterceptor logs method, duration and status code of every call.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "rpc finished",
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start))
		return resp, err
	}
}

// metricsInterceptor records request counts and latencies per method.
func metricsInterceptor(metrics *api.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.ObserveRequest(path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// timeoutInterceptor bounds every call by the configured request timeout.
func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
