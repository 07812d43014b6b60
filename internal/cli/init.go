// Package cli provides common CLI initialization utilities shared by
// cmd/crm, cmd/crm-worker and cmd/crmctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agencycrm/internal/config"
	"agencycrm/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the logger described by LOG_LEVEL and LOG_FORMAT and
// sets it as the default logger. Unknown values fall back to info/text.
func SetupLogger(w io.Writer, cfg *config.Config, component string) *log.Logger {
	logger, err := log.NewFromSettings(w, cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		logger, _ = log.NewFromSettings(w, "info", "text", component)
		logger.Warn("Invalid log level, using info", log.FieldError, err.Error())
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it with validate
// (Config.Validate when nil).
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for binaries: it exits on failure.
func MustLoadConfig(validate func(*config.Config) error) *config.Config {
	cfg, err := LoadAndValidateConfig(validate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT/SIGTERM; cleanup then runs
// bounded by timeout and done is closed once it has returned or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
