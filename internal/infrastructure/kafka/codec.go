package kafka

import (
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/v42069/kafka-payments/internal/domain/event"
)

// Wire-level header names carried alongside the payload.
const (
	HeaderMessageID         = "messageId"
	HeaderEventType         = "eventType"
	HeaderAttempt           = "attempt"
	HeaderOriginalPartition = "originalPartition"
)

// EncodeMessage maps an envelope onto a broker message. The partition key is
// the producer-chosen business key; the message id travels as a header, never
// generated by the broker.
func EncodeMessage(topic string, env *event.Envelope) kafka.Message {
	return kafka.Message{
		Topic: topic,
		Key:   []byte(env.Key),
		Value: env.Payload,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderMessageID, Value: []byte(env.MessageID)},
			{Key: HeaderEventType, Value: []byte(env.Type)},
			{Key: HeaderAttempt, Value: []byte(strconv.Itoa(env.Attempt))},
		},
	}
}

// DecodeMessage rebuilds the envelope from an inbound broker message.
// A missing messageId header is a malformed envelope: without it the
// idempotency store cannot dedup, so the message must not be processed.
func DecodeMessage(msg kafka.Message) (*event.Envelope, error) {
	env := &event.Envelope{
		Key:        string(msg.Key),
		Payload:    msg.Value,
		OccurredAt: msg.Time,
	}

	for _, h := range msg.Headers {
		switch h.Key {
		case HeaderMessageID:
			env.MessageID = string(h.Value)
		case HeaderEventType:
			env.Type = string(h.Value)
		case HeaderAttempt:
			if n, err := strconv.Atoi(string(h.Value)); err == nil {
				env.Attempt = n
			}
		}
	}

	if env.MessageID == "" {
		return nil, fmt.Errorf("message on %s partition %d offset %d has no %s header",
			msg.Topic, msg.Partition, msg.Offset, HeaderMessageID)
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}

	return env, nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
