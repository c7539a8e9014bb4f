package event

import (
	"encoding/json"
	"time"
)

// Topics the pipeline produces to and consumes from. Each one has a derived
// dead-letter topic (see DeadLetterTopic).
const (
	TopicProductCreated = "product-created-events-topic"
	TopicWithdrawal     = "withdraw-money-topic"
	TopicDeposit        = "deposit-money-topic"

	DeadLetterSuffix = ".DLT"
)

// DeadLetterTopic returns the dead-letter topic derived from topic.
func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}

// Envelope is the unit moving through the broker.
//
// MessageID is assigned by the producer, never by the broker, and is the
// deduplication key: a redelivery of the same event carries the same
// MessageID. Key selects the partition (same key, same partition, preserved
// relative order). Attempt is owned by the consumer-side redelivery loop and
// is zero when published.
type Envelope struct {
	MessageID  string          `json:"message_id"`
	Key        string          `json:"-"`
	Type       string          `json:"type"`
	Attempt    int             `json:"attempt"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type ProductCreated struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type WithdrawalRequested struct {
	SenderID    string  `json:"sender_id"`
	RecipientID string  `json:"recipient_id"`
	Amount      float64 `json:"amount"`
}

type DepositRequested struct {
	SenderID    string  `json:"sender_id"`
	RecipientID string  `json:"recipient_id"`
	Amount      float64 `json:"amount"`
}

// Event type names carried in the eventType header.
const (
	TypeProductCreated      = "ProductCreated"
	TypeWithdrawalRequested = "WithdrawalRequested"
	TypeDepositRequested    = "DepositRequested"
)
