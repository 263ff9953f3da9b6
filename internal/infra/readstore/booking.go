package readstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/db"
	"fleetbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

const bookingViewSQL = `
SELECT b.id, b.customer_id, b.vehicle_id, v.name,
	b.start_date, b.end_date, b.total_days,
	b.pickup_location, b.dropoff_location, b.note,
	b.base_amount_cents, b.add_ons_amount_cents, b.tax_amount_cents, b.total_amount_cents,
	b.status, b.payment_status, b.payment_ref, b.cancel_reason, b.cancelled_at,
	b.created_at, b.updated_at
FROM bookings b
JOIN vehicles v ON v.id = b.vehicle_id
WHERE b.id = $1`

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		view queries.BookingView
		note string
	)
	err := r.db.QueryRow(ctx, bookingViewSQL, id).Scan(
		&view.ID, &view.CustomerID, &view.VehicleID, &view.VehicleName,
		&view.StartDate, &view.EndDate, &view.TotalDays,
		&view.PickupLocation, &view.DropoffLocation, &note,
		&view.BaseAmountCents, &view.AddOnsAmountCents, &view.TaxAmountCents, &view.TotalAmountCents,
		&view.Status, &view.PaymentStatus, &view.PaymentRef, &view.CancelReason, &view.CancelledAt,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	if note != "" {
		view.Note = &note
	}

	items, err := r.lineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	view.LineItems = items

	return &view, nil
}

const bookingLineItemsSQL = `
SELECT add_on_id, name, daily_rate_cents, quantity
FROM booking_line_items
WHERE booking_id = $1
ORDER BY position`

func (r *BookingReadStore) lineItems(ctx context.Context, bookingID uuid.UUID) ([]queries.LineItemView, error) {
	rows, err := r.db.Query(ctx, bookingLineItemsSQL, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read line items", err)
	}
	defer rows.Close()

	items := make([]queries.LineItemView, 0)
	for rows.Next() {
		var item queries.LineItemView
		if err := rows.Scan(&item.AddOnID, &item.Name, &item.DailyRateCents, &item.Quantity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan line item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate line items", err)
	}

	return items, nil
}

const bookingListSelectSQL = `
SELECT b.id, b.customer_id, b.vehicle_id, v.name,
	b.start_date, b.end_date, b.status, b.payment_status, b.total_amount_cents, b.created_at
FROM bookings b
JOIN vehicles v ON v.id = b.vehicle_id`

func (r *BookingReadStore) FindByCustomer(ctx context.Context, customerID uuid.UUID, status *string, lastCreatedAt *time.Time, lastID *uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	filter := queries.ListFilter{CustomerID: &customerID, Status: status}
	return r.list(ctx, filter, lastCreatedAt, lastID, limit)
}

func (r *BookingReadStore) FindAll(ctx context.Context, filter queries.ListFilter, lastCreatedAt *time.Time, lastID *uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	return r.list(ctx, filter, lastCreatedAt, lastID, limit)
}

// list builds the WHERE clause from the optional filters and applies keyset
// pagination on (created_at, id) descending.
func (r *BookingReadStore) list(ctx context.Context, filter queries.ListFilter, lastCreatedAt *time.Time, lastID *uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CustomerID != nil {
		conds = append(conds, "b.customer_id = "+arg(*filter.CustomerID))
	}
	if filter.VehicleID != nil {
		conds = append(conds, "b.vehicle_id = "+arg(*filter.VehicleID))
	}
	if filter.Status != nil {
		conds = append(conds, "b.status = "+arg(*filter.Status))
	}
	if lastCreatedAt != nil && lastID != nil {
		conds = append(conds, fmt.Sprintf("(b.created_at, b.id) < (%s, %s)", arg(*lastCreatedAt), arg(*lastID)))
	}

	query := bookingListSelectSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.created_at DESC, b.id DESC LIMIT " + arg(limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	result := make([]*queries.BookingListItem, 0)
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(
			&item.ID, &item.CustomerID, &item.VehicleID, &item.VehicleName,
			&item.StartDate, &item.EndDate, &item.Status, &item.PaymentStatus,
			&item.TotalAmountCents, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookings", err)
	}

	return result, nil
}

const conflictViewsSQL = `
SELECT id, vehicle_id, status, start_date, end_date
FROM bookings
WHERE vehicle_id = $1
  AND status IN ('pending', 'confirmed', 'active')
  AND start_date <= $3
  AND end_date >= $2
ORDER BY start_date`

func (r *BookingReadStore) FindByVehicleAndRange(ctx context.Context, vehicleID uuid.UUID, rng booking.DateRange) ([]*queries.ConflictView, error) {
	rows, err := r.db.Query(ctx, conflictViewsSQL, vehicleID, rng.Start(), rng.End())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to probe availability", err)
	}
	defer rows.Close()

	result := make([]*queries.ConflictView, 0)
	for rows.Next() {
		var view queries.ConflictView
		if err := rows.Scan(&view.BookingID, &view.VehicleID, &view.Status, &view.StartDate, &view.EndDate); err != nil {
			return nil, infra.WrapRepoErr("failed to scan conflict", err)
		}
		result = append(result, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate conflicts", err)
	}

	return result, nil
}
