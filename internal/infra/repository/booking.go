package repository

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/db"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation    = "23505"
	pgErrCodeForeignKeyViolated = "23503"
	pgErrCodeExclusionViolation = "23P01"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

const insertBookingSQL = `
INSERT INTO bookings (
	id, customer_id, vehicle_id, start_date, end_date,
	pickup_location, dropoff_location, note,
	total_days, base_amount_cents, add_ons_amount_cents, tax_amount_cents, total_amount_cents,
	status, payment_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`

const insertLineItemSQL = `
INSERT INTO booking_line_items (booking_id, position, add_on_id, name, daily_rate_cents, quantity)
VALUES ($1, $2, $3, $4, $5, $6)`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error) {
	pricing := b.Pricing()

	var id uuid.UUID
	err := r.db.QueryRow(ctx, insertBookingSQL,
		b.ID(), b.CustomerID(), b.VehicleID(),
		b.DateRange().Start(), b.DateRange().End(),
		b.PickupLocation().String(), b.DropoffLocation().String(), b.Note().String(),
		pricing.TotalDays,
		pricing.BaseAmount.Cents(), pricing.AddOnsAmount.Cents(),
		pricing.TaxAmount.Cents(), pricing.TotalAmount.Cents(),
		b.Status().String(), b.PaymentStatus().String(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, classifyWriteErr("failed to create booking", err)
	}

	for i, item := range pricing.LineItems {
		if _, err := r.db.Exec(ctx, insertLineItemSQL,
			id, i, item.AddOnID, item.Name, item.DailyRate.Cents(), item.Quantity,
		); err != nil {
			return uuid.Nil, classifyWriteErr("failed to create booking line item", err)
		}
	}

	return id, nil
}

const selectBookingSQL = `
SELECT id, customer_id, vehicle_id, start_date, end_date,
	pickup_location, dropoff_location, note,
	total_days, base_amount_cents, add_ons_amount_cents, tax_amount_cents, total_amount_cents,
	status, payment_status, payment_ref, cancel_reason, cancelled_at,
	created_at, updated_at
FROM bookings`

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, selectBookingSQL+" WHERE id = $1 FOR UPDATE", id)
	return r.scanBooking(ctx, row, "booking not found")
}

func (r *BookingRepository) FindByPaymentRefForUpdate(ctx context.Context, paymentRef string) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, selectBookingSQL+" WHERE payment_ref = $1 FOR UPDATE", paymentRef)
	return r.scanBooking(ctx, row, "booking not found for payment ref")
}

const updateBookingSQL = `
UPDATE bookings
SET status = $2,
	payment_status = $3,
	payment_ref = $4,
	cancel_reason = $5,
	cancelled_at = $6,
	updated_at = now()
WHERE id = $1`

// Update writes every mutable field in a single statement so concurrent
// transitions never expose a partially applied state.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	var cancelReason *string
	var cancelledAt *time.Time
	if c := b.Cancellation(); c != nil {
		cancelReason = &c.Reason
		cancelledAt = &c.CancelledAt
	}

	tag, err := r.db.Exec(ctx, updateBookingSQL,
		b.ID(), b.Status().String(), b.PaymentStatus().String(),
		b.PaymentRef(), cancelReason, cancelledAt,
	)
	if err != nil {
		return classifyWriteErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	return nil
}

const firstConflictSQL = `
SELECT id, vehicle_id, status, start_date, end_date
FROM bookings
WHERE vehicle_id = $1
  AND status IN ('pending', 'confirmed', 'active')
  AND start_date <= $3
  AND end_date >= $2
ORDER BY start_date
LIMIT 1`

// FirstConflict probes availability with the inclusive overlap predicate
// (s1 <= e2 AND s2 <= e1). Returns nil when the vehicle is free; the schema
// exclusion constraint is the authoritative guard under concurrency.
func (r *BookingRepository) FirstConflict(ctx context.Context, vehicleID uuid.UUID, rng booking.DateRange) (*shared.ConflictSnapshot, error) {
	var snap shared.ConflictSnapshot
	err := r.db.QueryRow(ctx, firstConflictSQL, vehicleID, rng.Start(), rng.End()).Scan(
		&snap.BookingID, &snap.VehicleID, &snap.Status, &snap.StartDate, &snap.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to probe booking conflicts", err)
	}
	return &snap, nil
}

const selectLineItemsSQL = `
SELECT add_on_id, name, daily_rate_cents, quantity
FROM booking_line_items
WHERE booking_id = $1
ORDER BY position`

func (r *BookingRepository) scanBooking(ctx context.Context, row pgx.Row, notFoundMsg string) (*booking.Booking, error) {
	var (
		id, customerID, vehicleID                        uuid.UUID
		startDate, endDate                               time.Time
		pickup, dropoff, note                            string
		totalDays                                        int
		baseCents, addOnsCents, taxCents, totalCents     int64
		status, paymentStatus                            string
		paymentRef, cancelReason                         *string
		cancelledAt                                      *time.Time
		createdAt, updatedAt                             time.Time
	)

	err := row.Scan(
		&id, &customerID, &vehicleID, &startDate, &endDate,
		&pickup, &dropoff, &note,
		&totalDays, &baseCents, &addOnsCents, &taxCents, &totalCents,
		&status, &paymentStatus, &paymentRef, &cancelReason, &cancelledAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(notFoundMsg, err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read booking", err)
	}

	lineItems, err := r.readLineItems(ctx, id)
	if err != nil {
		return nil, err
	}

	rng, err := booking.NewDateRange(startDate, endDate)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking has invalid date range", err)
	}

	var cancellation *booking.Cancellation
	if cancelReason != nil && cancelledAt != nil {
		cancellation = &booking.Cancellation{Reason: *cancelReason, CancelledAt: *cancelledAt}
	}

	pricing := booking.Quote{
		TotalDays:    totalDays,
		BaseAmount:   booking.NewMoney(baseCents),
		AddOnsAmount: booking.NewMoney(addOnsCents),
		TaxAmount:    booking.NewMoney(taxCents),
		TotalAmount:  booking.NewMoney(totalCents),
		LineItems:    lineItems,
	}

	return booking.ReconstructBooking(
		id, customerID, vehicleID, rng,
		booking.NewLocation(pickup), booking.NewLocation(dropoff), booking.NewNote(note),
		pricing,
		booking.Status(status), booking.PaymentStatus(paymentStatus),
		paymentRef, cancellation,
		createdAt, updatedAt,
	), nil
}

func (r *BookingRepository) readLineItems(ctx context.Context, bookingID uuid.UUID) ([]booking.LineItem, error) {
	rows, err := r.db.Query(ctx, selectLineItemsSQL, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read booking line items", err)
	}
	defer rows.Close()

	var items []booking.LineItem
	for rows.Next() {
		var (
			addOnID        uuid.UUID
			name           string
			dailyRateCents int64
			quantity       int
		)
		if err := rows.Scan(&addOnID, &name, &dailyRateCents, &quantity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking line item", err)
		}
		items = append(items, booking.LineItem{
			AddOnID:   addOnID,
			Name:      name,
			DailyRate: booking.NewMoney(dailyRateCents),
			Quantity:  quantity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking line items", err)
	}

	return items, nil
}

func classifyWriteErr(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeExclusionViolation:
			return infra.WrapRepoErr(msg, err, infra.KindConflict)
		case pgErrCodeUniqueViolation:
			return infra.WrapRepoErr(msg, err, infra.KindDuplicateKey)
		case pgErrCodeForeignKeyViolated:
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		}
	}
	return infra.WrapRepoErr(msg, err)
}
