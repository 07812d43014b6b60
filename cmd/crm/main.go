package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"agencycrm/internal/backend"
	"agencycrm/internal/cli"
	apphttp "agencycrm/internal/http"
	"agencycrm/internal/log"
	"agencycrm/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig(nil)
	logger := cli.SetupLogger(os.Stdout, cfg, "crm")

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	records := services.NewRecordService(result.Store, result.Store, result.Events).WithLogger(logger)
	reports := services.NewReportService(result.Store, result.Store)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Records:            records,
		Reports:            reports,
		Ready:              apphttp.ReadyFunc(result.Ready),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReportCacheSize:    cfg.ReportCacheSize,
		ReportCacheTTL:     cfg.ReportCacheTTL,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting crm server", "port", cfg.Port, "backend", cfg.DataBackend, "events", result.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
