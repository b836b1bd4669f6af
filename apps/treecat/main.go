package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/tilsley/treecat/apps/treecat/internal/cli"
	"github.com/tilsley/treecat/pkg/logging"
	"github.com/tilsley/treecat/pkg/telemetry"
)

func main() {
	// stdout carries blob content; logs go to stderr.
	log := logging.NewWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tel, err := telemetry.New(ctx, telemetry.Enabled(), "treecat")
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}

	runErr := cli.NewCLI(log, cli.GitHubClient).ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", "error", err)
	}

	if runErr != nil {
		log.Error("treecat failed", "error", runErr)
		cancel()
		stop()
		os.Exit(1) //nolint:gocritic // cancel and stop called explicitly above
	}
}
