package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"github.com/v42069/kafka-payments/internal/domain/event"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
)

var (
	eventsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_events_succeeded_total",
		Help: "The total number of envelopes handled successfully",
	})
	eventsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_events_retried_total",
		Help: "The total number of retry attempts scheduled",
	})
	eventsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_events_dead_lettered_total",
		Help: "The total number of envelopes routed to a dead-letter topic",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_processing_duration_seconds",
		Help:    "Time taken to bring one envelope to a terminal state",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 30},
	})
)

// Handler is the idempotent business logic invoked once per delivery attempt.
// Errors it returns are classified by the controller; it must never swallow a
// failure silently.
type Handler func(ctx context.Context, env *event.Envelope) error

// MessageSource is the broker side of the controller: it pulls inbound
// records and commits offsets. Auto-commit must be disabled on it.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// ControllerConfig bounds the retry loop. Zero values fall back to the
// defaults: 3 attempts, 5s fixed backoff.
type ControllerConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 5 * time.Second
)

// Controller drives one envelope at a time through
//
//	Received -> Processing -> {Succeeded | RetryScheduled -> Processing | DeadLettered}
//
// and commits the offset only on a terminal state. A retryable failure is
// re-invoked after a fixed backoff until MaxAttempts is exhausted; a
// non-retryable failure short-circuits to the dead-letter router. Because the
// offset is not committed mid-loop, a consumer restart during a retry cycle
// redelivers the record.
//
// A Controller owns no shared mutable state, so several of them can run in
// parallel workers of one consumer group; a backoff wait blocks only the
// worker whose partition the envelope came from.
type Controller struct {
	source      MessageSource
	handler     Handler
	deadLetters *DeadLetterRouter
	classify    ClassifyFunc
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewController(source MessageSource, handler Handler, deadLetters *DeadLetterRouter, classify ClassifyFunc, cfg ControllerConfig, logger *slog.Logger) *Controller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}

	return &Controller{
		source:      source,
		handler:     handler,
		deadLetters: deadLetters,
		classify:    classify,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		logger:      logger,
	}
}

// Run pulls and processes envelopes until ctx is cancelled. On cancellation
// mid-cycle the in-flight envelope is abandoned without an offset commit, so
// the broker redelivers it on restart.
func (c *Controller) Run(ctx context.Context) error {
	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			// Cancelled mid-cycle: no commit, the record redelivers.
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to reach terminal state", "error", err,
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

func (c *Controller) process(ctx context.Context, msg kafka.Message) error {
	started := time.Now()

	env, err := broker.DecodeMessage(msg)
	if err != nil {
		// Malformed envelope: not retryable, dead-letter the raw record.
		c.logger.Error("malformed envelope", "error", err)
		env = &event.Envelope{
			Key:        string(msg.Key),
			Payload:    msg.Value,
			OccurredAt: msg.Time,
			Attempt:    1,
		}
		return c.deadLetter(ctx, msg, env)
	}

	for attempt := 1; ; attempt++ {
		env.Attempt = attempt

		handleErr := c.handler(ctx, env)
		if handleErr == nil {
			if err := c.commit(ctx, msg); err != nil {
				return err
			}
			eventsSucceeded.Inc()
			processingDuration.Observe(time.Since(started).Seconds())
			return nil
		}

		class := c.classify(handleErr)
		c.logger.Error("processing failed",
			"error", handleErr,
			"class", class.String(),
			"message_id", env.MessageID,
			"attempt", attempt,
			"max_attempts", c.maxAttempts)

		if class == ClassRetryable && attempt < c.maxAttempts {
			eventsRetried.Inc()
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		// Retries exhausted or non-retryable: this record is handled.
		return c.deadLetter(ctx, msg, env)
	}
}

func (c *Controller) deadLetter(ctx context.Context, msg kafka.Message, env *event.Envelope) error {
	if err := c.deadLetters.Route(ctx, msg.Topic, msg.Partition, env); err != nil {
		return err
	}
	eventsDeadLettered.Inc()
	return c.commit(ctx, msg)
}

func (c *Controller) commit(ctx context.Context, msg kafka.Message) error {
	if err := c.source.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit offset", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		return err
	}
	return nil
}
