// Package healthcheck probes the arena ops endpoint for container liveness.
package healthcheck

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/gridsnake/internal/platform/config"
	platformgrpc "github.com/louisbranch/gridsnake/internal/platform/grpc"
	"github.com/louisbranch/gridsnake/internal/platform/timeouts"
	server "github.com/louisbranch/gridsnake/internal/services/arena/app"
	"github.com/rs/zerolog"
)

const envPrefix = "GRIDSNAKE_HEALTHCHECK_"

// Config holds healthcheck command configuration.
type Config struct {
	Addr    string        `env:"ADDR"    envDefault:"127.0.0.1:8087"`
	Service string        `env:"SERVICE"`
	Timeout time.Duration `env:"TIMEOUT"`
}

// ParseConfig parses GRIDSNAKE_HEALTHCHECK_* variables and flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Service: server.HealthService, Timeout: timeouts.GRPCDial}
	if err := config.ParseEnvWithPrefix(&cfg, envPrefix); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "ops gRPC address to probe")
	fs.StringVar(&cfg.Service, "service", cfg.Service, "health service name")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "probe timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run reports nil once the service answers SERVING within cfg.Timeout.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return fmt.Errorf("addr is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.GRPCDial
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := platformgrpc.DialWithHealth(ctx, nil, addr, cfg.Service, timeout, logger, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return err
	}
	return conn.Close()
}
