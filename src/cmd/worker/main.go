// Command worker consumes transaction change messages and writes the audit trail.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-dashboard/src/config"
	"finance-dashboard/src/events"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/store"
	"finance-dashboard/src/worker"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Component: logging.ComponentWorker,
		JSON:      !cfg.IsDevelopment(),
		Output:    os.Stdout,
	})
	logging.SetDefault(logger)
	logger.Info("Starting audit worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The worker needs a persistent data backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open data store", logging.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer st.Close()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", logging.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(st, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.Consume(ctx, audit.HandleTransactionMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", logging.FieldError, err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}
	cancel()

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
