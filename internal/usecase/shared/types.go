package shared

import (
	"time"

	"github.com/google/uuid"
)

// Write-side snapshots keep commands independent of read-side view types.
type VehicleSnapshot struct {
	ID             uuid.UUID
	Name           string
	DailyRateCents int64
	IsBookable     bool
}

type AddOnSnapshot struct {
	ID             uuid.UUID
	Name           string
	DailyRateCents int64
	IsBookable     bool
}

// ConflictSnapshot identifies the blocking booking found by an availability
// probe.
type ConflictSnapshot struct {
	BookingID uuid.UUID
	VehicleID uuid.UUID
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	CustomerID      uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)
