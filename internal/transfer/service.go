package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/v42069/kafka-payments/internal/domain/event"
	domainTransfer "github.com/v42069/kafka-payments/internal/domain/transfer"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
	"github.com/v42069/kafka-payments/internal/infrastructure/postgres"
)

// ServiceError wraps any failure inside the transfer sequence. It causes the
// enclosing local transaction to roll back.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("transfer service: %v", e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }

// Publisher writes one envelope to a topic and reports where it landed.
type Publisher interface {
	Publish(ctx context.Context, topic string, env *event.Envelope) (broker.PublishResult, error)
}

// RemoteCaller is the synchronous validation call between the two publishes.
type RemoteCaller interface {
	Validate(ctx context.Context) error
}

type Request struct {
	SenderID    string  `json:"sender_id"`
	RecipientID string  `json:"recipient_id"`
	Amount      float64 `json:"amount"`
}

// Service coordinates the two-step fund movement: persist a transfer record,
// publish WithdrawalRequested keyed by sender, validate against the remote
// service, publish DepositRequested keyed by recipient. A failure anywhere
// aborts the single pass; there is no compensation and no internal retry
// (re-submission is the caller's decision, a blind retry risks a double
// withdrawal).
//
// The local transaction cannot span the broker. When a publish is accepted by
// the broker and a later step fails, the transaction rolls the transfer
// record back while the published event remains: a WithdrawalRequested event
// can exist for a transfer that is absent from the store. That dual-write gap
// is inherent to this sequence and is exercised by the package tests.
type Service struct {
	tx      postgres.Transactor
	records domainTransfer.Store
	events  Publisher
	remote  RemoteCaller
	logger  *slog.Logger
}

func NewService(tx postgres.Transactor, records domainTransfer.Store, events Publisher, remote RemoteCaller, logger *slog.Logger) *Service {
	return &Service{
		tx:      tx,
		records: records,
		events:  events,
		remote:  remote,
		logger:  logger,
	}
}

// Transfer runs the sequence once. A true return means every step returned
// without raising; it does not mean both events were durably consumed
// downstream.
func (s *Service) Transfer(ctx context.Context, req Request) (bool, error) {
	record := &domainTransfer.Record{
		TransferID:  uuid.New().String(),
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.records.Save(txCtx, record); err != nil {
			return fmt.Errorf("save transfer record: %w", err)
		}

		// Withdrawal keyed by sender: one sender's movements stay ordered.
		withdrawal, err := s.newEnvelope(event.TypeWithdrawalRequested, req.SenderID, event.WithdrawalRequested{
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Amount:      req.Amount,
		})
		if err != nil {
			return err
		}
		res, err := s.events.Publish(txCtx, event.TopicWithdrawal, withdrawal)
		if err != nil {
			return err
		}
		s.logger.Info("sent event to withdrawal topic",
			"transfer_id", record.TransferID,
			"partition", res.Partition,
			"offset", res.Offset)

		if err := s.remote.Validate(txCtx); err != nil {
			return err
		}

		deposit, err := s.newEnvelope(event.TypeDepositRequested, req.RecipientID, event.DepositRequested{
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Amount:      req.Amount,
		})
		if err != nil {
			return err
		}
		res, err = s.events.Publish(txCtx, event.TopicDeposit, deposit)
		if err != nil {
			return err
		}
		s.logger.Info("sent event to deposit topic",
			"transfer_id", record.TransferID,
			"partition", res.Partition,
			"offset", res.Offset)

		return nil
	})
	if err != nil {
		return false, &ServiceError{Err: err}
	}

	return true, nil
}

func (s *Service) newEnvelope(eventType, key string, payload any) (*event.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", eventType, err)
	}

	return &event.Envelope{
		MessageID:  uuid.New().String(),
		Key:        key,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}
