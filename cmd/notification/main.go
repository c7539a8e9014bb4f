package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/v42069/kafka-payments/internal/application/factories/infrastructure"
	"github.com/v42069/kafka-payments/internal/config"
	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/infrastructure/kafka"
	"github.com/v42069/kafka-payments/internal/infrastructure/postgres"
	"github.com/v42069/kafka-payments/internal/infrastructure/remote"
	"github.com/v42069/kafka-payments/internal/notification"
	"github.com/v42069/kafka-payments/internal/pipeline"
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

	// Metrics Server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("notification metrics listening on :9091")
		http.ListenAndServe(":9091", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	processedRepo := postgres.NewProcessedEventRepository(pgPool)
	remoteClient := remote.NewClient(cfg.Remote.ValidationURL, cfg.Remote.Timeout, logger)
	handler := notification.NewHandler(processedRepo, remoteClient, logger)

	producer := infraFactory.Producer()
	deadLetters := pipeline.NewDeadLetterRouter(producer, logger)
	classify := pipeline.NewClassifier()

	controllerCfg := pipeline.ControllerConfig{
		MaxAttempts: cfg.Kafka.MaxAttempts,
		Backoff:     cfg.Kafka.Backoff,
	}

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "product-created-events"
	}

	logger.Info("notification consumer started",
		"topic", event.TopicProductCreated,
		"group_id", groupID,
		"workers", cfg.Kafka.Workers)

	// One worker per reader; the consumer group balances partitions across
	// them, so a backoff wait on one partition never stalls the others.
	var wg sync.WaitGroup
	for i := 0; i < cfg.Kafka.Workers; i++ {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, event.TopicProductCreated, groupID)
		defer consumer.Close()

		controller := pipeline.NewController(consumer, handler.Handle, deadLetters, classify, controllerCfg,
			logger.With("worker", i))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := controller.Run(ctx); err != nil {
				logger.Error("worker stopped", "error", err)
			}
		}()
	}

	wg.Wait()
	logger.Info("notification consumer stopped")
}
