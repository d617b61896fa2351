// Package main exits 0 when the arena ops endpoint reports SERVING.
package main

import (
	"context"
	"flag"
	"os"

	hccmd "github.com/louisbranch/gridsnake/internal/cmd/healthcheck"
	entrypoint "github.com/louisbranch/gridsnake/internal/platform/cmd"
	"github.com/louisbranch/gridsnake/internal/platform/config"
)

func main() {
	cfg, err := hccmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("healthcheck: parse flags: %v", err)
	}
	logger, err := entrypoint.NewLogger(os.Stderr, entrypoint.ServiceHealthcheck, "warn")
	if err != nil {
		config.Exitf("healthcheck: %v", err)
	}
	options := entrypoint.RunOptions{Logger: logger}
	err = entrypoint.RunWithTelemetryAndOptions(context.Background(), entrypoint.ServiceHealthcheck, options, func(ctx context.Context) error {
		return hccmd.Run(ctx, cfg, logger)
	})
	if err != nil {
		config.Exitf("healthcheck: not serving: %v", err)
	}
}
