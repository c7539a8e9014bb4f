package deposit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/pipeline"
)

// Handler accepts DepositRequested events. Crediting the recipient's account
// lives in another system; here the accepted deposit is logged.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) Handle(ctx context.Context, env *event.Envelope) error {
	var deposit event.DepositRequested
	if err := json.Unmarshal(env.Payload, &deposit); err != nil {
		return pipeline.NotRetryable(fmt.Errorf("unmarshal deposit requested event: %w", err))
	}

	h.logger.Info("received a new deposit event",
		"message_id", env.MessageID,
		"sender_id", deposit.SenderID,
		"recipient_id", deposit.RecipientID,
		"amount", deposit.Amount)

	return nil
}
