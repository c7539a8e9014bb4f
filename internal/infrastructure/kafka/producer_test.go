package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingCompletions_ConcurrentSameID(t *testing.T) {
	p := newPendingCompletions()

	// Two in-flight publishes of the same replayed message id must each get
	// their own completion, in order.
	first := p.register("M1")
	second := p.register("M1")

	p.complete("M1", completion{partition: 1, offset: 10})
	p.complete("M1", completion{partition: 1, offset: 11})

	select {
	case c := <-first:
		assert.Equal(t, int64(10), c.offset)
	default:
		t.Fatal("first waiter got no completion")
	}

	select {
	case c := <-second:
		assert.Equal(t, int64(11), c.offset)
	default:
		t.Fatal("second waiter got no completion")
	}
}

func TestPendingCompletions_UnregisterLeavesOtherWaiters(t *testing.T) {
	p := newPendingCompletions()

	abandoned := p.register("M1")
	waiting := p.register("M1")

	// The first caller gave up (context expired); its slot must not absorb
	// the completion meant for the still-waiting caller.
	p.unregister("M1", abandoned)
	p.complete("M1", completion{partition: 2, offset: 7})

	select {
	case c := <-waiting:
		assert.Equal(t, 2, c.partition)
		assert.Equal(t, int64(7), c.offset)
	default:
		t.Fatal("remaining waiter got no completion")
	}

	require.Empty(t, p.waiters)
}

func TestPendingCompletions_CompleteWithoutWaiter(t *testing.T) {
	p := newPendingCompletions()

	// A completion with no registered waiter is dropped, not queued.
	p.complete("M1", completion{partition: 0, offset: 1})

	ch := p.register("M1")
	select {
	case <-ch:
		t.Fatal("stale completion delivered to a new waiter")
	default:
	}
}
