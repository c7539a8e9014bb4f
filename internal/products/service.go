package products

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/v42069/kafka-payments/internal/domain/event"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
)

// Publisher writes one envelope to a topic and reports where it landed.
type Publisher interface {
	Publish(ctx context.Context, topic string, env *event.Envelope) (broker.PublishResult, error)
}

type CreateProductRequest struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Service publishes ProductCreated events. The publish is synchronous: the
// product id is only returned once the broker acknowledged the event.
type Service struct {
	events Publisher
	logger *slog.Logger
}

func NewService(events Publisher, logger *slog.Logger) *Service {
	return &Service{
		events: events,
		logger: logger,
	}
}

// CreateProduct assigns a product id, publishes a ProductCreated event keyed
// by that id, and returns the id. The message id is producer-assigned, so a
// replay of the same event reuses it and downstream dedup holds.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (string, error) {
	productID := uuid.New().String()

	payload, err := json.Marshal(event.ProductCreated{
		ProductID: productID,
		Title:     req.Title,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return "", fmt.Errorf("marshal product created event: %w", err)
	}

	env := &event.Envelope{
		MessageID:  uuid.New().String(),
		Key:        productID,
		Type:       event.TypeProductCreated,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	res, err := s.events.Publish(ctx, event.TopicProductCreated, env)
	if err != nil {
		return "", fmt.Errorf("publish product created event: %w", err)
	}

	s.logger.Info("published product created event",
		"topic", event.TopicProductCreated,
		"partition", res.Partition,
		"offset", res.Offset,
		"product_id", productID,
		"message_id", env.MessageID)

	return productID, nil
}
