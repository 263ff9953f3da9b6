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

// VehicleReadStore resolves entries from the vehicle catalog, which is
// owned by the catalog service; this side only ever reads it.
type VehicleReadStore struct {
	db db.DBTX
}

func NewVehicleReadStore(dbtx db.DBTX) *VehicleReadStore {
	return &VehicleReadStore{db: dbtx}
}

const vehicleByIDSQL = `
SELECT id, name, daily_rate_cents, is_bookable
FROM vehicles
WHERE id = $1`

func (r *VehicleReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.VehicleSnapshot, error) {
	var snap shared.VehicleSnapshot
	err := r.db.QueryRow(ctx, vehicleByIDSQL, id).Scan(
		&snap.ID, &snap.Name, &snap.DailyRateCents, &snap.IsBookable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("vehicle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find vehicle", err)
	}
	return &snap, nil
}
