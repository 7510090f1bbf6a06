package main

import (
	"context"
	"errors"
	"os"
	"time"

	"vbudget/internal/alerts"
	"vbudget/internal/amqp"
	"vbudget/internal/cli"
	"vbudget/internal/config"
	"vbudget/internal/log"
	"vbudget/internal/worker"
)

// Upper bound of remembered deliveries; one entry per rule per owner per day.
const maxDedupeEntries = 10000

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("vbudget-alerts stopped", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to consume alerts")
	}

	logger.Info("Starting vbudget-alerts", "queue", cfg.AMQPQueue, "dedupe_window", cfg.AlertDedupeWindow)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	w := worker.NewAlertWorker(amqpClient,
		alerts.NewLogDispatcher(logger),
		alerts.NewDeduper(maxDedupeEntries, cfg.AlertDedupeWindow),
		time.Hour, logger)

	runErr := make(chan error, 1)
	go func() {
		runErr <- w.Run(ctx)
		cancel()
	}()

	err = cli.WaitForShutdown(ctx, logger, 30*time.Second, func(shutdownCtx context.Context) error {
		select {
		case err := <-runErr:
			return err
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	return err
}
