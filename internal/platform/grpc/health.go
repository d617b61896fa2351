// Package grpc holds the ops gRPC plumbing: the health server exposed by the
// arena and the client helpers used by the healthcheck probe.
package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// WaitForHealth blocks until the gRPC health check for service reports
// SERVING or the context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logger zerolog.Logger) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			logger.Debug().Str("service", service).Msg("gRPC health check is SERVING")
			return nil
		}
		if err != nil {
			logger.Debug().Err(err).Str("service", service).Msg("waiting for gRPC health")
		} else {
			logger.Debug().Str("service", service).Stringer("status", response.GetStatus()).Msg("waiting for gRPC health")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if backoff < time.Second {
			backoff *= 2
			if backoff > time.Second {
				backoff = time.Second
			}
		}
	}
}
