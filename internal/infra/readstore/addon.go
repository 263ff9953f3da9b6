package readstore

import (
	"context"

	"fleetbook/internal/infra"
	"fleetbook/internal/infra/db"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// AddOnReadStore resolves add-on catalog entries (insurance, GPS, child
// seats). Like the vehicle catalog, the table is owned elsewhere.
type AddOnReadStore struct {
	db db.DBTX
}

func NewAddOnReadStore(dbtx db.DBTX) *AddOnReadStore {
	return &AddOnReadStore{db: dbtx}
}

const addOnsByIDsSQL = `
SELECT id, name, daily_rate_cents, is_bookable
FROM add_ons
WHERE id = ANY($1)`

// FindByIDs resolves the requested ids and reports the ones that did not
// resolve so callers can reject them instead of silently dropping them.
func (r *AddOnReadStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shared.AddOnSnapshot, []uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	rows, err := r.db.Query(ctx, addOnsByIDsSQL, ids)
	if err != nil {
		return nil, nil, infra.WrapRepoErr("failed to resolve add-ons", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]shared.AddOnSnapshot, len(ids))
	for rows.Next() {
		var snap shared.AddOnSnapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.DailyRateCents, &snap.IsBookable); err != nil {
			return nil, nil, infra.WrapRepoErr("failed to scan add-on", err)
		}
		byID[snap.ID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, nil, infra.WrapRepoErr("failed to iterate add-ons", err)
	}

	// Preserve request order; duplicates in the request resolve to the same
	// catalog entry.
	resolved := make([]shared.AddOnSnapshot, 0, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		snap, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, snap)
	}

	return resolved, missing, nil
}
