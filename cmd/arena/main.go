// Package main starts the gridsnake arena: one shared board served over
// WebSocket with a fixed-rate simulation loop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	arenacmd "github.com/louisbranch/gridsnake/internal/cmd/arena"
)

func main() {
	cfg, err := arenacmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ARENA] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := arenacmd.Run(ctx, cfg, os.Stderr); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
