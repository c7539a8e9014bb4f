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

	"github.com/v42069/kafka-payments/internal/config"
	"github.com/v42069/kafka-payments/internal/deposit"
	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/infrastructure/kafka"
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
		logger.Info("deposit metrics listening on :9092")
		http.ListenAndServe(":9092", mux)
	}()

	handler := deposit.NewHandler(logger)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	deadLetters := pipeline.NewDeadLetterRouter(producer, logger)
	classify := pipeline.NewClassifier()

	controllerCfg := pipeline.ControllerConfig{
		MaxAttempts: cfg.Kafka.MaxAttempts,
		Backoff:     cfg.Kafka.Backoff,
	}

	groupID := cfg.Kafka.DepositGroupID
	if groupID == "" {
		groupID = "deposit-service"
	}

	logger.Info("deposit consumer started",
		"topic", event.TopicDeposit,
		"group_id", groupID,
		"workers", cfg.Kafka.Workers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Kafka.Workers; i++ {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, event.TopicDeposit, groupID)
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
	logger.Info("deposit consumer stopped")
}
