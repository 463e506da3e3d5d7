// Package main provides the entry point for the brickdex CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brickworks/brickdex/cmd/brickdex/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version, commit); err != nil {
		os.Exit(1)
	}
}
