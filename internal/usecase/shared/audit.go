package shared

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditBookingCreate    AuditAction = "BOOKING_CREATE"
	AuditBookingCancel    AuditAction = "BOOKING_CANCEL"
	AuditBookingUpdate    AuditAction = "BOOKING_UPDATE"
	AuditPaymentInitiated AuditAction = "PAYMENT_INITIATED"
	AuditPaymentSuccess   AuditAction = "PAYMENT_SUCCESS"
	AuditPaymentFailed    AuditAction = "PAYMENT_FAILED"
	AuditPaymentRefund    AuditAction = "PAYMENT_REFUND"
)

type AuditEvent struct {
	Action     AuditAction
	ActorID    uuid.UUID
	BookingID  uuid.UUID
	Details    map[string]any
	OccurredAt time.Time
}

// AuditSink delivers events best-effort. Emit must never block the calling
// operation and delivery failures stay out of the caller's error path.
type AuditSink interface {
	Emit(event AuditEvent)
}
