// Package cli provides the startup steps shared by cmd/vbudget and
// cmd/vbudget-alerts.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vbudget/internal/config"
	"vbudget/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, applies
// the command line overrides and validates the result.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default, so packages logging through slog directly
// share its handler.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
		Handler:   log.NewHandler(os.Stdout, cfg.LogFormat, log.ParseLevel(cfg.LogLevel)),
	})
	log.SetDefault(logger)
	return logger
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned cancel releases the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// WaitForShutdown blocks until ctx is done, then runs stop with at most
// timeout to finish. A stop that overruns reports context.DeadlineExceeded.
func WaitForShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, stop func(context.Context) error) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := stop(shutdownCtx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
	case err != nil:
		logger.Error("Shutdown failed", log.FieldError, err)
	default:
		logger.Info("Shutdown complete")
	}
	return err
}
