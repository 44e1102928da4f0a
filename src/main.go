package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-dashboard/src/api"
	"finance-dashboard/src/auth"
	"finance-dashboard/src/config"
	"finance-dashboard/src/db"
	"finance-dashboard/src/events"
	"finance-dashboard/src/export"
	"finance-dashboard/src/importer"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/middleware"
	"finance-dashboard/src/plaid"
	"finance-dashboard/src/services"
	"finance-dashboard/src/store"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Component: logging.ComponentApp,
		JSON:      !cfg.IsDevelopment(),
		Output:    os.Stdout,
	})
	logging.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", logging.FieldError, err)
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
	logger.Info("Data store ready", "backend", cfg.DataBackend)

	cache, err := db.NewDashboardCache(cfg.DashboardCacheTTL)
	if err != nil {
		logger.Error("Failed to initialize dashboard cache", logging.FieldError, err)
		os.Exit(1)
	}
	defer cache.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", logging.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiresIn)
	limiter := middleware.NewLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests, cfg.TrustProxy)
	defer limiter.Stop()

	deps := api.Deps{
		Config:    cfg,
		UserStore: st,
		Tokens:    tokens,
		Transactions: services.NewTransactionService(st, cache, publisher,
			export.NewFormatter(cfg.ExportDateLayout, cfg.Location), cfg.Location, logger),
		Dashboard: services.NewDashboardService(st, cache, cfg.Location, logger),
		Users:     services.NewUserService(st, tokens, logger),
		Cache:     cache,
		Limiter:   limiter,
		Logger:    logger,
	}

	if cfg.PlaidEnabled() {
		client, err := plaid.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
		if err != nil {
			logger.Error("Failed to initialize Plaid client", logging.FieldError, err)
			os.Exit(1)
		}
		deps.Plaid = importer.NewPlaidImporter(client, cfg.Location)
		logger.Info("Plaid import enabled", "environment", cfg.PlaidEnv)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        api.NewRouter(deps),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", logging.FieldError, err)
		}
		cancel()
	}()

	logger.Info("API server running", "port", cfg.Port, "environment", cfg.Env, "demo_mode", cfg.DemoMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", logging.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
