package transfer

import (
	"context"
	"time"
)

// Record is created once per transfer request, before any publish is
// attempted, and never mutated afterwards. There is deliberately no status
// field: the system does not track "withdrawal published, deposit pending"
// (see DESIGN.md on the dual-write gap).
type Record struct {
	TransferID  string    `json:"transfer_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists transfer records. No update or delete is ever needed.
type Store interface {
	Save(ctx context.Context, r *Record) error
}
