package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/domain/processed"
	"github.com/v42069/kafka-payments/internal/pipeline"
)

var duplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "notification_duplicate_messages_skipped_total",
	Help: "The total number of redelivered duplicates suppressed by the idempotency store",
})

// RemoteCaller is the outbound side effect of the handler.
type RemoteCaller interface {
	Validate(ctx context.Context) error
}

// Handler processes ProductCreated events exactly-once-in-effect: the message
// id is recorded in the idempotency store before the side effect runs, and a
// redelivered duplicate is a logged no-op, not an error.
//
// Known at-least-once boundary: if the process crashes after the store insert
// committed but before the side effect ran, a redelivery of the same message
// is suppressed and the side effect is never re-attempted. The side effect is
// likewise not rolled back when it fails after the insert committed.
type Handler struct {
	store  processed.Store
	remote RemoteCaller
	logger *slog.Logger
}

func NewHandler(store processed.Store, remote RemoteCaller, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		remote: remote,
		logger: logger,
	}
}

func (h *Handler) Handle(ctx context.Context, env *event.Envelope) error {
	var product event.ProductCreated
	if err := json.Unmarshal(env.Payload, &product); err != nil {
		return pipeline.NotRetryable(fmt.Errorf("unmarshal product created event: %w", err))
	}

	h.logger.Info("received a new event",
		"message_id", env.MessageID,
		"product_id", product.ProductID,
		"title", product.Title)

	exists, err := h.store.ExistsByMessageID(ctx, env.MessageID)
	if err != nil {
		return &pipeline.StorageError{Err: err}
	}
	if exists {
		h.logger.Info("duplicate message detected and skipped", "message_id", env.MessageID)
		duplicatesSkipped.Inc()
		return nil
	}

	record := &processed.Event{
		MessageID: env.MessageID,
		EntityID:  product.ProductID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Save(ctx, record); err != nil {
		if errors.Is(err, processed.ErrDuplicate) {
			// A concurrent duplicate raced past the exists-check. Confirmed
			// duplicate, must not be retried.
			h.logger.Info("duplicate message detected on insert", "message_id", env.MessageID)
			duplicatesSkipped.Inc()
			return pipeline.NotRetryable(err)
		}
		return &pipeline.StorageError{Err: err}
	}

	// Side effect only after the record is durably inserted. The remote call
	// returns errors already classified.
	if err := h.remote.Validate(ctx); err != nil {
		return err
	}

	h.logger.Info("email notification sent",
		"message_id", env.MessageID,
		"product_id", product.ProductID)

	return nil
}
