package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirasaad/payledger/infra/initializer"
	"github.com/amirasaad/payledger/pkg/app"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/webapi"
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()
	logger := deps.Logger

	a, err := app.New(deps, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	fiberApp := webapi.SetupApp(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)
	return serve(ctx, fiberApp, addr, cfg.Server)
}

// serve listens on addr until ctx is done, then drains in-flight requests
// for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, fiberApp *fiber.App, addr string, cfg *config.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	if err := fiberApp.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
