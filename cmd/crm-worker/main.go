package main

import (
	"context"
	"errors"
	"os"
	"time"

	"agencycrm/internal/amqp"
	"agencycrm/internal/backend"
	"agencycrm/internal/cli"
	"agencycrm/internal/config"
	"agencycrm/internal/log"
	"agencycrm/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(os.Stdout, cfg, log.ComponentLedger)

	logger.Info("Starting crm-worker")

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	// The worker consumes events; it never publishes them.
	backendConfig.AMQPURL = ""

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	writer, err := cli.NewLedgerWriter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err.Error())
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}

	ledgerWorker := worker.NewLedgerWorker(result.Store, writer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err.Error())
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	go func() {
		err := amqpClient.Consume(ctx, ledgerWorker.HandleMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
