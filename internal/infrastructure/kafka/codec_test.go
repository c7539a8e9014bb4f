package kafka_test

import (
	"testing"
	"time"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v42069/kafka-payments/internal/domain/event"
	"github.com/v42069/kafka-payments/internal/infrastructure/kafka"
)

func TestEncodeDecodeMessage(t *testing.T) {
	env := &event.Envelope{
		MessageID:  "M1",
		Key:        "S1",
		Type:       event.TypeWithdrawalRequested,
		Attempt:    2,
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload:    []byte(`{"sender_id":"S1","recipient_id":"R1","amount":100}`),
	}

	msg := kafka.EncodeMessage(event.TopicWithdrawal, env)
	assert.Equal(t, event.TopicWithdrawal, msg.Topic)
	assert.Equal(t, []byte("S1"), msg.Key)

	decoded, err := kafka.DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, env.MessageID, decoded.MessageID)
	assert.Equal(t, env.Key, decoded.Key)
	assert.Equal(t, env.Type, decoded.Type)
	assert.Equal(t, env.Attempt, decoded.Attempt)
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))
}

func TestDecodeMessage_MissingMessageID(t *testing.T) {
	msg := segmentio.Message{
		Topic: event.TopicWithdrawal,
		Key:   []byte("S1"),
		Value: []byte(`{}`),
	}

	_, err := kafka.DecodeMessage(msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messageId")
}
