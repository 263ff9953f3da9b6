package shared

import (
	"context"
	"time"

	"fleetbook/internal/domain/booking"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: validation reads outside a transaction
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Idempotency() IdempotencyRepository
	Reads() CommandReads
}

type CommandReads interface {
	VehicleByID(ctx context.Context, id uuid.UUID) (*VehicleSnapshot, error)
	// AddOnsByIDs resolves catalog entries; ids that do not resolve are
	// returned in the second slice, never silently dropped.
	AddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]AddOnSnapshot, []uuid.UUID, error)
	FirstConflict(ctx context.Context, vehicleID uuid.UUID, rng booking.DateRange) (*ConflictSnapshot, error)
	IdempotencyByKey(ctx context.Context, key, customerID uuid.UUID) (*IdempotencyRecord, error)
}

// BookingRepository is the write-side store. FindByIDForUpdate and
// FindByPaymentRefForUpdate lock the row so a status transition is a single
// atomic read-modify-write within the enclosing transaction.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByPaymentRefForUpdate(ctx context.Context, paymentRef string) (*booking.Booking, error)
	// Update persists the mutable fields (status pair, payment ref,
	// cancellation) in one statement.
	Update(ctx context.Context, b *booking.Booking) error
	FirstConflict(ctx context.Context, vehicleID uuid.UUID, rng booking.DateRange) (*ConflictSnapshot, error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key for this request. claimed reports whether the
	// insert won; false means another request already holds the key.
	TryInsert(ctx context.Context, key, customerID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (claimed bool, err error)
	MarkCompleted(ctx context.Context, key, customerID uuid.UUID, resultBookingID uuid.UUID) error
}
