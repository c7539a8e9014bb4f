package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/v42069/kafka-payments/internal/domain/transfer"
)

// TransferRepository persists transfer records. Records are insert-only:
// there is no update or delete, and no status column.
type TransferRepository struct {
	pool *pgxpool.Pool
}

func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

func (r *TransferRepository) Save(ctx context.Context, t *transfer.Record) error {
	const query = `
		INSERT INTO transfers (transfer_id, sender_id, recipient_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var executor interface {
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	} = r.pool

	if tx := GetTx(ctx); tx != nil {
		executor = tx
	}

	_, err := executor.Exec(ctx, query,
		t.TransferID, t.SenderID, t.RecipientID, t.Amount, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}
