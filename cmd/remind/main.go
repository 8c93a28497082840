// Package main runs one inactivity scan and exits. It suits platforms that
// trigger jobs externally instead of keeping the server's scheduler alive.
//
// Usage:
//
//	go run ./cmd/remind
//	go run ./cmd/remind -storage mongo -mongo-uri mongodb://localhost:27017
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/di"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	scanner, err := di.Scanner(injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize scanner: %v\n", err)
		return 1
	}
	log := do.MustInvoke[*logger.Logger](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, scheduler.DefaultTimeout)
	defer cancel()

	result, err := scanner.Scan(ctx)
	if err != nil {
		log.Error("Inactivity scan failed", "error", err)
		return 1
	}

	log.Info("Inactivity scan completed",
		"processed", result.Processed,
		"reminders_sent", result.RemindersSent,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return 0
}
