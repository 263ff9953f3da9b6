package request

import (
	"strings"
	"time"

	"fleetbook/internal/usecase/commands"

	"github.com/google/uuid"
)

type AddOnSelection struct {
	ID       uuid.UUID `json:"id" binding:"required"`
	Quantity int       `json:"quantity"`
}

type QuoteRequest struct {
	VehicleID uuid.UUID        `json:"vehicle_id" binding:"required"`
	StartDate time.Time        `json:"start_date" binding:"required"`
	EndDate   time.Time        `json:"end_date" binding:"required"`
	AddOns    []AddOnSelection `json:"add_ons,omitempty"`
}

func (r QuoteRequest) ToCommand() commands.QuoteRequest {
	return commands.QuoteRequest{
		VehicleID: r.VehicleID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		AddOns:    toAddOnRequests(r.AddOns),
	}
}

type CreateBookingRequest struct {
	VehicleID       uuid.UUID        `json:"vehicle_id" binding:"required"`
	StartDate       time.Time        `json:"start_date" binding:"required"`
	EndDate         time.Time        `json:"end_date" binding:"required"`
	AddOns          []AddOnSelection `json:"add_ons,omitempty"`
	PickupLocation  string           `json:"pickup_location,omitempty"`
	DropoffLocation string           `json:"dropoff_location,omitempty"`
	Note            string           `json:"note,omitempty"`
}

func (r CreateBookingRequest) ToCommand() commands.CreateBookingRequest {
	return commands.CreateBookingRequest{
		VehicleID:       r.VehicleID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		AddOns:          toAddOnRequests(r.AddOns),
		PickupLocation:  strings.TrimSpace(r.PickupLocation),
		DropoffLocation: strings.TrimSpace(r.DropoffLocation),
		Note:            strings.TrimSpace(r.Note),
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

func toAddOnRequests(selections []AddOnSelection) []commands.AddOnRequest {
	if len(selections) == 0 {
		return nil
	}
	out := make([]commands.AddOnRequest, len(selections))
	for i, s := range selections {
		out[i] = commands.AddOnRequest{ID: s.ID, Quantity: s.Quantity}
	}
	return out
}
