package repository

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/infra"
	"fleetbook/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

const tryInsertIdempotencySQL = `
INSERT INTO idempotency_keys (key, customer_id, endpoint, request_hash, status, expires_at)
VALUES ($1, $2, $3, $4, 'processing', $5)
ON CONFLICT (key, customer_id) DO NOTHING`

// TryInsert claims the key. Losing the race to an existing row is not an
// error; it reports claimed=false and the caller inspects the stored record.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, customerID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, tryInsertIdempotencySQL, key, customerID, endpoint, requestHash, expiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeForeignKeyViolated {
			return false, infra.WrapRepoErr("failed to claim idempotency key", err, infra.KindForeignKeyViolated)
		}
		return false, infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

const markCompletedSQL = `
UPDATE idempotency_keys
SET status = 'completed', result_booking_id = $3, updated_at = now()
WHERE key = $1 AND customer_id = $2`

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, customerID uuid.UUID, resultBookingID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, markCompletedSQL, key, customerID, resultBookingID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key disappeared", nil, infra.KindNotFound)
	}
	return nil
}
