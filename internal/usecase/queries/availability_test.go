//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/usecase/queries"
	queriesmock "fleetbook/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func availDay(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestAvailabilityQueries(t *testing.T) {
	vehicleID := uuid.New()

	newFixture := func(t *testing.T) (*queriesmock.MockConflictReadStore, queries.AvailabilityQueries) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockConflictReadStore(ctrl)
		return store, queries.NewAvailabilityQueries(store)
	}

	t.Run("no overlapping bookings means available", func(t *testing.T) {
		store, q := newFixture(t)
		store.EXPECT().
			FindByVehicleAndRange(gomock.Any(), vehicleID, gomock.Any()).
			Return([]*queries.ConflictView{}, nil)

		available, err := q.IsAvailable(context.Background(), vehicleID, availDay(10), availDay(12))
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("find conflict reports the earliest of several overlaps", func(t *testing.T) {
		store, q := newFixture(t)
		first := &queries.ConflictView{
			BookingID: uuid.New(),
			VehicleID: vehicleID,
			Status:    "confirmed",
			StartDate: availDay(9),
			EndDate:   availDay(11),
		}
		second := &queries.ConflictView{
			BookingID: uuid.New(),
			VehicleID: vehicleID,
			Status:    "pending",
			StartDate: availDay(11),
			EndDate:   availDay(13),
		}
		store.EXPECT().
			FindByVehicleAndRange(gomock.Any(), vehicleID, gomock.Any()).
			Return([]*queries.ConflictView{first, second}, nil)

		conflict, err := q.FindConflict(context.Background(), vehicleID, availDay(10), availDay(12))
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, first.BookingID, conflict.BookingID)
	})

	t.Run("store receives the requested range", func(t *testing.T) {
		store, q := newFixture(t)
		store.EXPECT().
			FindByVehicleAndRange(gomock.Any(), vehicleID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, rng booking.DateRange) ([]*queries.ConflictView, error) {
				assert.Equal(t, availDay(10), rng.Start())
				assert.Equal(t, availDay(12), rng.End())
				return nil, nil
			})

		conflict, err := q.FindConflict(context.Background(), vehicleID, availDay(10), availDay(12))
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("invalid range rejected before hitting the store", func(t *testing.T) {
		_, q := newFixture(t)

		_, err := q.FindConflict(context.Background(), vehicleID, availDay(12), availDay(10))
		require.ErrorIs(t, err, booking.ErrInvalidRange)

		_, err = q.IsAvailable(context.Background(), vehicleID, availDay(10), availDay(10))
		require.ErrorIs(t, err, booking.ErrInvalidRange)
	})
}
