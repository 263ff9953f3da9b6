package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange       = errors.New("invalid date range")
	ErrInvalidStatus      = errors.New("invalid booking status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownAddOn       = errors.New("unknown add-on")
	ErrVehicleNotBookable = errors.New("vehicle not bookable")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrNotPaid            = errors.New("booking not paid")
	ErrAlreadyPaid        = errors.New("booking already paid")
)

type Cancellation struct {
	Reason      string
	CancelledAt time.Time
}

// Booking is a customer's claim on a vehicle for a date range. Identity,
// customer, vehicle, dates, line items and pricing are fixed at creation;
// only the status pair and its attachments change afterwards.
type Booking struct {
	id              uuid.UUID
	customerID      uuid.UUID
	vehicleID       uuid.UUID
	dateRange       DateRange
	pickupLocation  Location
	dropoffLocation Location
	note            Note
	pricing         Quote
	status          Status
	paymentStatus   PaymentStatus
	paymentRef      *string
	cancellation    *Cancellation
	createdAt       time.Time
	updatedAt       time.Time
}

func NewBooking(
	customerID, vehicleID uuid.UUID,
	rng DateRange,
	pricing Quote,
	pickup, dropoff Location,
	note Note,
) (*Booking, error) {
	if customerID == uuid.Nil || vehicleID == uuid.Nil {
		return nil, errors.New("customer and vehicle are required")
	}
	if rng.IsZero() {
		return nil, ErrInvalidRange
	}
	if pricing.TotalAmount.IsNegative() {
		return nil, ErrNegativePrice
	}

	return &Booking{
		id:              uuid.New(),
		customerID:      customerID,
		vehicleID:       vehicleID,
		dateRange:       rng,
		pickupLocation:  pickup,
		dropoffLocation: dropoff,
		note:            note,
		pricing:         pricing,
		status:          StatusPending,
		paymentStatus:   PaymentPending,
	}, nil
}

func ReconstructBooking(
	id, customerID, vehicleID uuid.UUID,
	rng DateRange,
	pickup, dropoff Location,
	note Note,
	pricing Quote,
	status Status,
	paymentStatus PaymentStatus,
	paymentRef *string,
	cancellation *Cancellation,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		customerID:      customerID,
		vehicleID:       vehicleID,
		dateRange:       rng,
		pickupLocation:  pickup,
		dropoffLocation: dropoff,
		note:            note,
		pricing:         pricing,
		status:          status,
		paymentStatus:   paymentStatus,
		paymentRef:      paymentRef,
		cancellation:    cancellation,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Cancel records a terminal cancellation. Completed and already-cancelled
// bookings reject it.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	b.status = StatusCancelled
	b.cancellation = &Cancellation{Reason: reason, CancelledAt: now}
	b.updatedAt = now
	return nil
}

// ApplyStatus performs an explicit (admin-driven) transition. A transition
// to cancelled stamps the cancellation fields.
func (b *Booking) ApplyStatus(next Status, reason string, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if next == StatusCancelled {
		return b.Cancel(reason, now)
	}
	if !b.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.status = next
	b.updatedAt = now
	return nil
}

// AttachPaymentRef records the processor reference handed out at initiation.
// A paid booking keeps its reference; re-initiating with a new reference is
// allowed only while the payment is still open. A fresh intent after a
// failed attempt reopens the payment; an open payment is left untouched.
func (b *Booking) AttachPaymentRef(ref string, now time.Time) error {
	if b.paymentStatus == PaymentPaid || b.paymentStatus == PaymentRefunded {
		return ErrAlreadyPaid
	}
	b.paymentRef = &ref
	if b.paymentStatus == PaymentFailed {
		b.paymentStatus = PaymentPending
	}
	b.updatedAt = now
	return nil
}

// MarkPaid applies a successful payment outcome: payment goes to paid with
// the processor reference, and a pending booking is confirmed. Applying the
// same reference twice is a no-op.
func (b *Booking) MarkPaid(ref string, now time.Time) error {
	if b.paymentStatus == PaymentPaid {
		if b.paymentRef != nil && *b.paymentRef == ref {
			return nil
		}
		return ErrAlreadyPaid
	}
	b.paymentStatus = PaymentPaid
	b.paymentRef = &ref
	if b.status == StatusPending {
		b.status = StatusConfirmed
	}
	b.updatedAt = now
	return nil
}

// MarkPaymentFailed records a processor failure without touching status.
// A failure arriving after a successful payment never regresses paid.
func (b *Booking) MarkPaymentFailed(now time.Time) {
	if b.paymentStatus == PaymentPaid || b.paymentStatus == PaymentRefunded {
		return
	}
	b.paymentStatus = PaymentFailed
	b.updatedAt = now
}

// MarkRefunded requires a paid booking. The booking is cancelled alongside
// when the state machine allows it; a completed booking keeps its status.
func (b *Booking) MarkRefunded(reason string, now time.Time) error {
	if b.paymentStatus != PaymentPaid {
		return ErrNotPaid
	}
	b.paymentStatus = PaymentRefunded
	if b.status.CanTransitionTo(StatusCancelled) {
		b.status = StatusCancelled
		b.cancellation = &Cancellation{Reason: reason, CancelledAt: now}
	}
	b.updatedAt = now
	return nil
}

func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.customerID == customerID
}

func (b *Booking) IsPaid() bool {
	return b.paymentStatus == PaymentPaid
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) VehicleID() uuid.UUID         { return b.vehicleID }
func (b *Booking) DateRange() DateRange         { return b.dateRange }
func (b *Booking) PickupLocation() Location     { return b.pickupLocation }
func (b *Booking) DropoffLocation() Location    { return b.dropoffLocation }
func (b *Booking) Note() Note                   { return b.note }
func (b *Booking) Pricing() Quote               { return b.pricing }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentRef() *string          { return b.paymentRef }
func (b *Booking) Cancellation() *Cancellation  { return b.cancellation }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
