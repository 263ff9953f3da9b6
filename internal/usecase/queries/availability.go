package queries

import (
	"context"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/pkg/errs"

	"github.com/google/uuid"
)

// ConflictView describes the blocking booking, when one exists.
type ConflictView struct {
	BookingID uuid.UUID `json:"booking_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type ConflictReadStore interface {
	// FindByVehicleAndRange returns every blocking booking overlapping rng,
	// ordered by start date.
	FindByVehicleAndRange(ctx context.Context, vehicleID uuid.UUID, rng booking.DateRange) ([]*ConflictView, error)
}

// AvailabilityQueries answers whether a vehicle is free over a range. The
// read is advisory; the authoritative guard is the store constraint checked
// at booking creation.
type AvailabilityQueries interface {
	IsAvailable(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error)
	FindConflict(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (*ConflictView, error)
}

type availabilityQueriesImpl struct {
	store ConflictReadStore
}

func NewAvailabilityQueries(store ConflictReadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{store: store}
}

func (q *availabilityQueriesImpl) IsAvailable(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error) {
	conflict, err := q.FindConflict(ctx, vehicleID, start, end)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

func (q *availabilityQueriesImpl) FindConflict(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (*ConflictView, error) {
	rng, err := booking.NewDateRange(start, end)
	if err != nil {
		return nil, errs.Mark(err, booking.ErrInvalidRange)
	}
	conflicts, err := q.store.FindByVehicleAndRange(ctx, vehicleID, rng)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return nil, nil
	}
	return conflicts[0], nil
}
