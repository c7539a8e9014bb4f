package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/v42069/kafka-payments/internal/domain/processed"
)

const uniqueViolationCode = "23505"

// ProcessedEventRepository is the durable idempotency ledger. Save is a plain
// unique-constrained insert: the uniqueness violation on a second insert is
// the dedup signal, surfaced as processed.ErrDuplicate.
type ProcessedEventRepository struct {
	pool *pgxpool.Pool
}

func NewProcessedEventRepository(pool *pgxpool.Pool) *ProcessedEventRepository {
	return &ProcessedEventRepository{pool: pool}
}

func (r *ProcessedEventRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM processed_events WHERE message_id = $1
		)
	`

	var exists bool

	if tx := GetTx(ctx); tx != nil {
		if err := tx.QueryRow(ctx, query, messageID).Scan(&exists); err != nil {
			return false, fmt.Errorf("check processed event: %w", err)
		}
		return exists, nil
	}

	if err := r.pool.QueryRow(ctx, query, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return exists, nil
}

func (r *ProcessedEventRepository) Save(ctx context.Context, e *processed.Event) error {
	const query = `
		INSERT INTO processed_events (message_id, entity_id, created_at)
		VALUES ($1, $2, NOW())
	`

	var executor interface {
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	} = r.pool

	if tx := GetTx(ctx); tx != nil {
		executor = tx
	}

	_, err := executor.Exec(ctx, query, e.MessageID, e.EntityID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("insert processed event %s: %w", e.MessageID, processed.ErrDuplicate)
		}
		return fmt.Errorf("insert processed event: %w", err)
	}

	return nil
}
