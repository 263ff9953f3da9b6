package queries

import (
	"context"
	"time"

	"fleetbook/internal/domain/actor"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrAccessDenied    = errs.New("access denied")
)

// Read models (DTO for read side)
type BookingView struct {
	ID               uuid.UUID      `json:"id"`
	CustomerID       uuid.UUID      `json:"customer_id"`
	VehicleID        uuid.UUID      `json:"vehicle_id"`
	VehicleName      string         `json:"vehicle_name"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	TotalDays        int            `json:"total_days"`
	PickupLocation   string         `json:"pickup_location"`
	DropoffLocation  string         `json:"dropoff_location"`
	Note             *string        `json:"note,omitempty"`
	BaseAmountCents  int64          `json:"base_amount_cents"`
	AddOnsAmountCents int64         `json:"add_ons_amount_cents"`
	TaxAmountCents   int64          `json:"tax_amount_cents"`
	TotalAmountCents int64          `json:"total_amount_cents"`
	Status           string         `json:"status"`
	PaymentStatus    string         `json:"payment_status"`
	PaymentRef       *string        `json:"payment_ref,omitempty"`
	CancelReason     *string        `json:"cancel_reason,omitempty"`
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`
	LineItems        []LineItemView `json:"line_items"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type LineItemView struct {
	AddOnID        uuid.UUID `json:"add_on_id"`
	Name           string    `json:"name"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	Quantity       int       `json:"quantity"`
}

type BookingListItem struct {
	ID               uuid.UUID `json:"id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	VehicleID        uuid.UUID `json:"vehicle_id"`
	VehicleName      string    `json:"vehicle_name"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListFilter narrows admin/customer listings; nil fields are ignored.
type ListFilter struct {
	Status     *string
	VehicleID  *uuid.UUID
	CustomerID *uuid.UUID
}

type BookingQueries interface {
	// GetByID enforces ownership: customers see their own bookings, admins
	// see everything.
	GetByID(ctx context.Context, act actor.Actor, id uuid.UUID) (*BookingView, error)
	// GetByIDSystem bypasses ownership for internal replay paths.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status *string, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
	ListAll(ctx context.Context, filter ListFilter, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, status *string, lastCreatedAt *time.Time, lastID *uuid.UUID, limit int32) ([]*BookingListItem, error)
	FindAll(ctx context.Context, filter ListFilter, lastCreatedAt *time.Time, lastID *uuid.UUID, limit int32) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, act actor.Actor, id uuid.UUID) (*BookingView, error) {
	view, err := q.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !act.CanActOn(view.CustomerID) {
		return nil, ErrAccessDenied
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.findByID(ctx, id)
}

func (q *bookingQueriesImpl) findByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to find booking")
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, status *string, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	lastCreatedAt, lastID, err := decodeCursorBound(after)
	if err != nil {
		return nil, nil, err
	}

	limit = clampLimit(limit)
	rows, err := q.store.FindByCustomer(ctx, customerID, status, lastCreatedAt, lastID, int32(limit))
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to list customer bookings")
	}
	return rows, nextCursor(rows, limit), nil
}

func (q *bookingQueriesImpl) ListAll(ctx context.Context, filter ListFilter, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	lastCreatedAt, lastID, err := decodeCursorBound(after)
	if err != nil {
		return nil, nil, err
	}

	limit = clampLimit(limit)
	rows, err := q.store.FindAll(ctx, filter, lastCreatedAt, lastID, int32(limit))
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to list bookings")
	}
	return rows, nextCursor(rows, limit), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func decodeCursorBound(after *Cursor) (*time.Time, *uuid.UUID, error) {
	if after == nil || after.After == "" {
		return nil, nil, nil
	}
	t, id, err := DecodeAfterCursor(after.After)
	if err != nil {
		return nil, nil, err
	}
	return &t, &id, nil
}

func nextCursor(rows []*BookingListItem, limit int) *Cursor {
	if len(rows) < limit {
		return nil
	}
	last := rows[len(rows)-1]
	return &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
}
