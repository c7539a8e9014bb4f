package kafka

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/v42069/kafka-payments/internal/domain/event"
)

// PublishError signals that the broker rejected a publish after the writer
// exhausted its own internal retries.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish to %s: %v", e.Topic, e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

// PublishResult reports where an accepted message landed.
type PublishResult struct {
	Partition int
	Offset    int64
}

type completion struct {
	partition int
	offset    int64
	err       error
}

// pendingCompletions correlates writer completion callbacks with in-flight
// Publish calls. Waiters for one message id form a FIFO queue, so concurrent
// publishes of a replayed message id each receive exactly one completion.
type pendingCompletions struct {
	mu      sync.Mutex
	waiters map[string][]chan completion
}

func newPendingCompletions() *pendingCompletions {
	return &pendingCompletions{waiters: map[string][]chan completion{}}
}

func (p *pendingCompletions) register(id string) chan completion {
	ch := make(chan completion, 1)
	p.mu.Lock()
	p.waiters[id] = append(p.waiters[id], ch)
	p.mu.Unlock()
	return ch
}

func (p *pendingCompletions) unregister(id string, ch chan completion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	queue := p.waiters[id]
	for i, w := range queue {
		if w == ch {
			queue = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if len(queue) == 0 {
		delete(p.waiters, id)
	} else {
		p.waiters[id] = queue
	}
}

func (p *pendingCompletions) complete(id string, c completion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	queue := p.waiters[id]
	if len(queue) == 0 {
		return
	}
	ch := queue[0]
	if len(queue) == 1 {
		delete(p.waiters, id)
	} else {
		p.waiters[id] = queue[1:]
	}
	ch <- c
}

// Producer wraps a kafka writer with a fixed reliability policy: all-replica
// acknowledgment, bounded internal retries, synchronous delivery. The policy
// is not tunable per call. Duplicate suppression is carried by the
// producer-assigned messageId header, which downstream consumers dedup on.
type Producer struct {
	writer  *kafka.Writer
	pending *pendingCompletions
}

func NewProducer(brokers []string) *Producer {
	p := &Producer{pending: newPendingCompletions()}

	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &partitionAwareBalancer{hash: &kafka.Hash{}},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		Async:                  false,
		AllowAutoTopicCreation: true,
		Completion:             p.complete,
	}

	return p
}

// Publish writes one envelope to topic, keyed by the envelope's stream key,
// and blocks until the broker acknowledges it on all replicas. The returned
// result carries the assigned partition and offset.
func (p *Producer) Publish(ctx context.Context, topic string, env *event.Envelope) (PublishResult, error) {
	return p.publish(ctx, topic, EncodeMessage(topic, env))
}

// PublishDeadLetter writes an envelope to topic carrying the partition of the
// original record, so the dead-letter topic preserves per-key locality for
// later inspection.
func (p *Producer) PublishDeadLetter(ctx context.Context, topic string, originalPartition int, env *event.Envelope) (PublishResult, error) {
	msg := EncodeMessage(topic, env)
	msg.Headers = append(msg.Headers, kafka.Header{
		Key:   HeaderOriginalPartition,
		Value: []byte(strconv.Itoa(originalPartition)),
	})
	return p.publish(ctx, topic, msg)
}

func (p *Producer) publish(ctx context.Context, topic string, msg kafka.Message) (PublishResult, error) {
	id, _ := headerValue(msg, HeaderMessageID)

	// WriteMessages reports delivery errors itself, but does not surface the
	// assigned partition and offset. The completion callback does.
	ch := p.pending.register(id)
	defer p.pending.unregister(id, ch)

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return PublishResult{}, &PublishError{Topic: topic, Err: err}
	}

	select {
	case c := <-ch:
		if c.err != nil {
			return PublishResult{}, &PublishError{Topic: topic, Err: c.err}
		}
		return PublishResult{Partition: c.partition, Offset: c.offset}, nil
	case <-ctx.Done():
		return PublishResult{}, &PublishError{Topic: topic, Err: ctx.Err()}
	}
}

func (p *Producer) complete(messages []kafka.Message, err error) {
	for _, msg := range messages {
		id, ok := headerValue(msg, HeaderMessageID)
		if !ok {
			continue
		}
		p.pending.complete(id, completion{partition: msg.Partition, offset: msg.Offset, err: err})
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// partitionAwareBalancer routes dead-letter messages onto the partition
// derived from the record's original partition and everything else by key
// hash, so two envelopes with the same stream key land on the same partition.
type partitionAwareBalancer struct {
	hash kafka.Balancer
}

func (b *partitionAwareBalancer) Balance(msg kafka.Message, partitions ...int) int {
	if v, ok := headerValue(msg, HeaderOriginalPartition); ok {
		if n, err := strconv.Atoi(v); err == nil && len(partitions) > 0 {
			return partitions[n%len(partitions)]
		}
	}
	return b.hash.Balance(msg, partitions...)
}
