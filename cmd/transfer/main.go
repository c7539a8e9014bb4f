package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/v42069/kafka-payments/internal/api"
	"github.com/v42069/kafka-payments/internal/application/factories/infrastructure"
	"github.com/v42069/kafka-payments/internal/config"
	"github.com/v42069/kafka-payments/internal/infrastructure/postgres"
	"github.com/v42069/kafka-payments/internal/infrastructure/remote"
	"github.com/v42069/kafka-payments/internal/transfer"
)

func main() {
	// Initialize structured JSON logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	producer := infraFactory.Producer()

	txManager := postgres.NewTxManager(pgPool)
	transferRepo := postgres.NewTransferRepository(pgPool)
	remoteClient := remote.NewClient(cfg.Remote.ValidationURL, cfg.Remote.Timeout, logger)

	transferService := transfer.NewService(txManager, transferRepo, producer, remoteClient, logger)

	handlers := api.NewTransferHandlers(transferService)
	router := api.NewTransferRouter(handlers, redisClient)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: router,
	}

	go func() {
		logger.Info("transfer service starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("transfer service stopped")
}
