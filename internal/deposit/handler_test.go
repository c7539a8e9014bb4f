package deposit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v42069/kafka-payments/internal/deposit"
	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/pipeline"
)

func TestHandle(t *testing.T) {
	h := deposit.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("accepts deposit event", func(t *testing.T) {
		env := &event.Envelope{
			MessageID: "M1",
			Key:       "R1",
			Type:      event.TypeDepositRequested,
			Payload:   []byte(`{"sender_id":"S1","recipient_id":"R1","amount":100}`),
		}
		require.NoError(t, h.Handle(context.Background(), env))
	})

	t.Run("malformed payload is not retryable", func(t *testing.T) {
		env := &event.Envelope{
			MessageID: "M2",
			Payload:   []byte(`{"amount":`),
		}
		err := h.Handle(context.Background(), env)
		require.Error(t, err)
		assert.Equal(t, pipeline.ClassNotRetryable, pipeline.NewClassifier()(err))
	})
}
