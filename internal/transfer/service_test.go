package transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v42069/kafka-payments/internal/domain/event"
	domainTransfer "github.com/v42069/kafka-payments/internal/domain/transfer"
	broker "github.com/v42069/kafka-payments/internal/infrastructure/kafka"
	"github.com/v42069/kafka-payments/internal/pipeline"
	"github.com/v42069/kafka-payments/internal/transfer"
)

// fakeRecordStore stages writes until the surrounding fake transaction
// commits, mirroring the rollback semantics of the postgres store.
type fakeRecordStore struct {
	staged    []*domainTransfer.Record
	committed []*domainTransfer.Record
	saveErr   error
}

func (s *fakeRecordStore) Save(_ context.Context, r *domainTransfer.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.staged = append(s.staged, r)
	return nil
}

type fakeTransactor struct {
	store *fakeRecordStore
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.staged = nil
	if err := fn(ctx); err != nil {
		t.store.staged = nil
		return err
	}
	t.store.committed = append(t.store.committed, t.store.staged...)
	t.store.staged = nil
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	typ   string
	raw   []byte
}

// fakePublisher records every accepted publish. Records stay recorded even
// when the local transaction later rolls back: the broker has no rollback.
type fakePublisher struct {
	events []publishedEvent
	failOn map[string]error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, env *event.Envelope) (broker.PublishResult, error) {
	if err := p.failOn[topic]; err != nil {
		return broker.PublishResult{}, err
	}
	p.events = append(p.events, publishedEvent{
		topic: topic,
		key:   env.Key,
		typ:   env.Type,
		raw:   env.Payload,
	})
	return broker.PublishResult{Partition: 0, Offset: int64(len(p.events))}, nil
}

func (p *fakePublisher) byTopic(topic string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type fakeRemote struct {
	err error
}

func (r *fakeRemote) Validate(_ context.Context) error { return r.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(store *fakeRecordStore, publisher *fakePublisher, remote *fakeRemote) *transfer.Service {
	return transfer.NewService(&fakeTransactor{store: store}, store, publisher, remote, discardLogger())
}

var req = transfer.Request{SenderID: "S1", RecipientID: "R1", Amount: 100}

func TestTransfer_Success(t *testing.T) {
	store := &fakeRecordStore{}
	publisher := &fakePublisher{}
	svc := newService(store, publisher, &fakeRemote{})

	ok, err := svc.Transfer(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, store.committed, 1)
	rec := store.committed[0]
	assert.NotEmpty(t, rec.TransferID)
	assert.Equal(t, "S1", rec.SenderID)
	assert.Equal(t, "R1", rec.RecipientID)
	assert.Equal(t, 100.0, rec.Amount)

	withdrawals := publisher.byTopic(event.TopicWithdrawal)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, "S1", withdrawals[0].key)
	assert.Equal(t, event.TypeWithdrawalRequested, withdrawals[0].typ)

	deposits := publisher.byTopic(event.TopicDeposit)
	require.Len(t, deposits, 1)
	assert.Equal(t, "R1", deposits[0].key)
	assert.Equal(t, event.TypeDepositRequested, deposits[0].typ)
}

func TestTransfer_StoreFailureAbortsBeforeAnyPublish(t *testing.T) {
	store := &fakeRecordStore{saveErr: errors.New("storage down")}
	publisher := &fakePublisher{}
	svc := newService(store, publisher, &fakeRemote{})

	ok, err := svc.Transfer(context.Background(), req)
	assert.False(t, ok)

	var svcErr *transfer.ServiceError
	require.ErrorAs(t, err, &svcErr)

	// Nothing external happened: safe abort.
	assert.Empty(t, publisher.events)
	assert.Empty(t, store.committed)
}

func TestTransfer_DualWriteGap(t *testing.T) {
	// The withdrawal publish succeeds, then the remote validation fails with
	// a 503. The transaction rolls the transfer record back, but the
	// withdrawal event is already on the broker. This gap is a property of
	// the design, not a bug to patch here.
	store := &fakeRecordStore{}
	publisher := &fakePublisher{}
	remote := &fakeRemote{err: pipeline.Retryable(errors.New("remote service unavailable: status 503"))}
	svc := newService(store, publisher, remote)

	ok, err := svc.Transfer(context.Background(), req)
	assert.False(t, ok)

	var svcErr *transfer.ServiceError
	require.ErrorAs(t, err, &svcErr)

	// Both facts hold at once: the record is absent from the store while the
	// withdrawal event remains published.
	assert.Empty(t, store.committed)

	withdrawals := publisher.byTopic(event.TopicWithdrawal)
	require.Len(t, withdrawals, 1)

	var w event.WithdrawalRequested
	require.NoError(t, json.Unmarshal(withdrawals[0].raw, &w))
	assert.Equal(t, event.WithdrawalRequested{SenderID: "S1", RecipientID: "R1", Amount: 100}, w)

	assert.Empty(t, publisher.byTopic(event.TopicDeposit))
}

func TestTransfer_WithdrawalPublishFailureRollsBackRecord(t *testing.T) {
	store := &fakeRecordStore{}
	publisher := &fakePublisher{failOn: map[string]error{
		event.TopicWithdrawal: &broker.PublishError{Topic: event.TopicWithdrawal, Err: errors.New("not enough replicas")},
	}}
	svc := newService(store, publisher, &fakeRemote{})

	ok, err := svc.Transfer(context.Background(), req)
	assert.False(t, ok)

	var svcErr *transfer.ServiceError
	require.ErrorAs(t, err, &svcErr)

	var pubErr *broker.PublishError
	assert.ErrorAs(t, err, &pubErr)

	assert.Empty(t, store.committed)
	assert.Empty(t, publisher.events)
}

func TestTransfer_DepositPublishFailureLeavesWithdrawalPublished(t *testing.T) {
	store := &fakeRecordStore{}
	publisher := &fakePublisher{failOn: map[string]error{
		event.TopicDeposit: &broker.PublishError{Topic: event.TopicDeposit, Err: errors.New("not enough replicas")},
	}}
	svc := newService(store, publisher, &fakeRemote{})

	ok, err := svc.Transfer(context.Background(), req)
	assert.False(t, ok)
	require.Error(t, err)

	assert.Empty(t, store.committed)
	assert.Len(t, publisher.byTopic(event.TopicWithdrawal), 1)
	assert.Empty(t, publisher.byTopic(event.TopicDeposit))
}
