package main

import (
	"context"
	"errors"
	"os"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets/xlsx"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer store.Cleanup()
	}
	cipher := cli.InitCipher(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker only reads, so it never publishes events of its own.
	ledger := services.NewTransactionService(store.Backend, cipher, nil, logger)
	exporter := worker.NewExportWorker(ledger, xlsx.New(), cfg.ExportDir, logger)

	go func() {
		if err := amqpClient.ConsumeRecordEvents(ctx, exporter.HandleRecordEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Consuming record events", "queue", cfg.AMQPQueue, "export_dir", cfg.ExportDir)
	cli.WaitForSignal(ctx, logger)
	cancel()
	logger.Info("Worker stopped")
}
