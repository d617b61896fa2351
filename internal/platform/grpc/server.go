package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer hosts the standard gRPC health service on its own listener.
type HealthServer struct {
	listener   net.Listener
	grpcServer *gogrpc.Server
	health     *health.Server
	services   []string
	logger     zerolog.Logger
}

// NewHealthServer listens on addr and registers the health service. Every
// name in services (plus the overall "" entry) starts NOT_SERVING.
func NewHealthServer(addr string, logger zerolog.Logger, services ...string) (*HealthServer, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("ops address is required")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	all := append([]string{""}, services...)
	for _, service := range all {
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	return &HealthServer{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		services:   all,
		logger:     logger,
	}, nil
}

// Addr returns the listener address for the server.
func (s *HealthServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// SetServing flips every registered service between SERVING and NOT_SERVING.
func (s *HealthServer) SetServing(serving bool) {
	if s == nil || s.health == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	for _, service := range s.services {
		s.health.SetServingStatus(service, status)
	}
}

// Serve runs the gRPC server until ctx is cancelled.
func (s *HealthServer) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("health server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Info().Str("addr", s.Addr()).Msg("ops health server listening")
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve ops gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve ops gRPC: %w", err)
	}
}

// Close stops the server and releases the listener.
func (s *HealthServer) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
