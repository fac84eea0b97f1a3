// Package main starts the places HTTP service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	placescmd "github.com/louisbranch/places/internal/cmd/places"
	"github.com/louisbranch/places/internal/platform/config"
	"github.com/louisbranch/places/internal/platform/logging"
)

func main() {
	cfg, err := placescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel).With("service", "places")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HealthCheck {
		if err := placescmd.CheckHealth(ctx, cfg, logger); err != nil {
			config.Exitf("health check: %v", err)
		}
		return
	}

	if err := placescmd.Run(ctx, cfg, logger); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
