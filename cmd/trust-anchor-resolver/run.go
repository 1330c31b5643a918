// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
	verpkg "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx, version, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("Error: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		// serve and mcp shut down on cancellation; give them a moment
		select {
		case err := <-done:
			if err == nil {
				return
			}
		case <-time.After(cli.ShutdownTimeout):
		}
		log.Println("Operation cancelled by signal. Exiting...")
		os.Exit(130) // Standard exit code for SIGINT
	}
}
