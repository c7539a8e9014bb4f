package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/v42069/kafka-payments/internal/domain/event"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
)

// DeadLetterPublisher republishes an envelope onto a derived topic, keeping
// the partition derived from the original record's partition.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, topic string, originalPartition int, env *event.Envelope) (broker.PublishResult, error)
}

// DeadLetterRouter moves envelopes that exhausted their retries, or failed
// non-retryably, onto `<original-topic>.DLT`. The envelope is republished
// unmodified apart from the recorded attempt count.
type DeadLetterRouter struct {
	publisher DeadLetterPublisher
	logger    *slog.Logger
}

func NewDeadLetterRouter(publisher DeadLetterPublisher, logger *slog.Logger) *DeadLetterRouter {
	return &DeadLetterRouter{
		publisher: publisher,
		logger:    logger,
	}
}

func (r *DeadLetterRouter) Route(ctx context.Context, originalTopic string, originalPartition int, env *event.Envelope) error {
	topic := event.DeadLetterTopic(originalTopic)

	res, err := r.publisher.PublishDeadLetter(ctx, topic, originalPartition, env)
	if err != nil {
		return fmt.Errorf("route to %s: %w", topic, err)
	}

	r.logger.Info("event dead-lettered",
		"topic", topic,
		"partition", res.Partition,
		"offset", res.Offset,
		"message_id", env.MessageID,
		"attempt", env.Attempt)

	return nil
}
