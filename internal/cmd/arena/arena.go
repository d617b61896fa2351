// Package arena parses arena command flags and composes the game server.
package arena

import (
	"context"
	"flag"
	"fmt"
	"io"

	entrypoint "github.com/louisbranch/gridsnake/internal/platform/cmd"
	"github.com/louisbranch/gridsnake/internal/random"
	server "github.com/louisbranch/gridsnake/internal/services/arena/app"
	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
)

// Config holds arena command configuration.
type Config struct {
	HTTPAddr    string `env:"GRIDSNAKE_ARENA_HTTP_ADDR"    envDefault:":12345"`
	OpsAddr     string `env:"GRIDSNAKE_ARENA_OPS_ADDR"     envDefault:":8087"`
	BoardWidth  int    `env:"GRIDSNAKE_ARENA_BOARD_WIDTH"  envDefault:"40"`
	BoardHeight int    `env:"GRIDSNAKE_ARENA_BOARD_HEIGHT" envDefault:"40"`
	Seed        int64  `env:"GRIDSNAKE_ARENA_SEED"`
	LogLevel    string `env:"GRIDSNAKE_LOG_LEVEL"          envDefault:"info"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "arena HTTP/WebSocket listen address")
	fs.StringVar(&cfg.OpsAddr, "ops-addr", cfg.OpsAddr, "ops gRPC health listen address (empty disables)")
	fs.IntVar(&cfg.BoardWidth, "board-width", cfg.BoardWidth, "board width in cells")
	fs.IntVar(&cfg.BoardHeight, "board-height", cfg.BoardHeight, "board height in cells")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "simulation seed (0 picks a random seed)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the arena server and serves until ctx is cancelled. Logs go to
// logOut.
func Run(ctx context.Context, cfg Config, logOut io.Writer) error {
	logger, err := entrypoint.NewLogger(logOut, entrypoint.ServiceArena, cfg.LogLevel)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed, err = random.NewSeed()
		if err != nil {
			return fmt.Errorf("generate seed: %w", err)
		}
	}
	logger.Info().Int64("seed", seed).Int("width", cfg.BoardWidth).Int("height", cfg.BoardHeight).Msg("arena configured")

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceArena, options, func(ctx context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr: cfg.HTTPAddr,
			OpsAddr:  cfg.OpsAddr,
			Board: domain.Config{
				Width:  cfg.BoardWidth,
				Height: cfg.BoardHeight,
				Seed:   seed,
			},
			Logger: logger,
		}); err != nil {
			return fmt.Errorf("serve arena: %w", err)
		}
		return nil
	})
}
