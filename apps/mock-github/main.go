package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tilsley/treecat/pkg/fakegithub"
	"github.com/tilsley/treecat/pkg/logging"
	"github.com/tilsley/treecat/pkg/telemetry"
)

func main() {
	log := logging.New()
	if err := run(log); err != nil {
		log.Error("mock-github failed", "error", err)
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM or a server error. Telemetry is flushed
// before it returns either way.
func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, telemetry.Enabled(), "mock-github")
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := tel.Shutdown(shutdownCtx); serr != nil {
			log.Error("telemetry shutdown failed", "error", serr)
		}
	}()

	s, err := newStore(log)
	if err != nil {
		return err
	}

	validator, err := fakegithub.NewValidator(fakegithub.OpenAPISpec)
	if err != nil {
		return fmt.Errorf("openapi validation middleware init: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           fakegithub.NewRouter(s, log, otelgin.Middleware("mock-github"), validator),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("mock-github starting", "port", port, "treeLimit", s.TreeLimit)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("mock-github shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

func newStore(log *slog.Logger) (*fakegithub.Store, error) {
	seed := fakegithub.DefaultSeed()
	if path := os.Getenv("SEED_FILE"); path != "" {
		var err error
		if seed, err = fakegithub.LoadSeedFile(path); err != nil {
			return nil, fmt.Errorf("load seed %s: %w", path, err)
		}
	}

	s := fakegithub.NewStore()
	if v := os.Getenv("TREE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TREE_LIMIT: %w", err)
		}
		s.TreeLimit = limit
	}
	if err := s.Apply(seed); err != nil {
		return nil, err
	}
	log.Info("seeded repos", "repos", s.Repos())
	return s, nil
}
