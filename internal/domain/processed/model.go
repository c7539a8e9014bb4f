package processed

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned by Store.Save when a record with the same message
// id already exists. The uniqueness violation is the dedup signal for a
// concurrent duplicate that raced past the exists-check.
var ErrDuplicate = errors.New("message id already processed")

// Event is the idempotency ledger row. Created exactly once per accepted
// message id, never updated, never deleted (retention is an external concern).
type Event struct {
	MessageID string    `json:"message_id"`
	EntityID  string    `json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the durable set of processed message identifiers.
// Save must be an atomic check-and-insert: a plain unique-constrained insert,
// not a read followed by a write.
type Store interface {
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	Save(ctx context.Context, e *Event) error
}
