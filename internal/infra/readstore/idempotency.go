package readstore

import (
	"context"
	"errors"

	"fleetbook/internal/infra"
	"fleetbook/internal/infra/db"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyReadStore struct {
	db db.DBTX
}

func NewIdempotencyReadStore(dbtx db.DBTX) *IdempotencyReadStore {
	return &IdempotencyReadStore{db: dbtx}
}

const idempotencyByKeySQL = `
SELECT key, customer_id, status, request_hash, result_booking_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND customer_id = $2`

func (r *IdempotencyReadStore) Get(ctx context.Context, key, customerID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var record shared.IdempotencyRecord
	err := r.db.QueryRow(ctx, idempotencyByKeySQL, key, customerID).Scan(
		&record.Key, &record.CustomerID, &record.Status,
		&record.RequestHash, &record.ResultBookingID, &record.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read idempotency key", err)
	}
	return &record, nil
}
