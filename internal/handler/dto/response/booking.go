package response

import (
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                uuid.UUID          `json:"id"`
	CustomerID        uuid.UUID          `json:"customerId"`
	VehicleID         uuid.UUID          `json:"vehicleId"`
	VehicleName       string             `json:"vehicleName"`
	StartDate         time.Time          `json:"startDate"`
	EndDate           time.Time          `json:"endDate"`
	TotalDays         int                `json:"totalDays"`
	PickupLocation    string             `json:"pickupLocation"`
	DropoffLocation   string             `json:"dropoffLocation"`
	Note              *string            `json:"note,omitempty"`
	BaseAmountCents   int64              `json:"baseAmountCents"`
	AddOnsAmountCents int64              `json:"addOnsAmountCents"`
	TaxAmountCents    int64              `json:"taxAmountCents"`
	TotalAmountCents  int64              `json:"totalAmountCents"`
	Status            string             `json:"status"`
	PaymentStatus     string             `json:"paymentStatus"`
	CancelReason      *string            `json:"cancelReason,omitempty"`
	CancelledAt       *time.Time         `json:"cancelledAt,omitempty"`
	LineItems         []LineItemResponse `json:"lineItems"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type LineItemResponse struct {
	AddOnID        uuid.UUID `json:"addOnId"`
	Name           string    `json:"name"`
	DailyRateCents int64     `json:"dailyRateCents"`
	Quantity       int       `json:"quantity"`
}

type BookingListResponse struct {
	ID               uuid.UUID `json:"id"`
	CustomerID       uuid.UUID `json:"customerId"`
	VehicleID        uuid.UUID `json:"vehicleId"`
	VehicleName      string    `json:"vehicleName"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"paymentStatus"`
	TotalAmountCents int64     `json:"totalAmountCents"`
	CreatedAt        time.Time `json:"createdAt"`
}

type BookingPageResponse struct {
	Items      []*BookingListResponse `json:"items"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

type QuoteResponse struct {
	TotalDays         int                `json:"totalDays"`
	BaseAmountCents   int64              `json:"baseAmountCents"`
	AddOnsAmountCents int64              `json:"addOnsAmountCents"`
	TaxAmountCents    int64              `json:"taxAmountCents"`
	TotalAmountCents  int64              `json:"totalAmountCents"`
	LineItems         []LineItemResponse `json:"lineItems"`
}

type AvailabilityResponse struct {
	Available bool       `json:"available"`
	Conflict  *uuid.UUID `json:"conflictingBookingId,omitempty"`
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	lineItems := make([]LineItemResponse, len(rm.LineItems))
	for i, li := range rm.LineItems {
		lineItems[i] = LineItemResponse{
			AddOnID:        li.AddOnID,
			Name:           li.Name,
			DailyRateCents: li.DailyRateCents,
			Quantity:       li.Quantity,
		}
	}

	return &BookingResponse{
		ID:                rm.ID,
		CustomerID:        rm.CustomerID,
		VehicleID:         rm.VehicleID,
		VehicleName:       rm.VehicleName,
		StartDate:         rm.StartDate,
		EndDate:           rm.EndDate,
		TotalDays:         rm.TotalDays,
		PickupLocation:    rm.PickupLocation,
		DropoffLocation:   rm.DropoffLocation,
		Note:              rm.Note,
		BaseAmountCents:   rm.BaseAmountCents,
		AddOnsAmountCents: rm.AddOnsAmountCents,
		TaxAmountCents:    rm.TaxAmountCents,
		TotalAmountCents:  rm.TotalAmountCents,
		Status:            rm.Status,
		PaymentStatus:     rm.PaymentStatus,
		CancelReason:      rm.CancelReason,
		CancelledAt:       rm.CancelledAt,
		LineItems:         lineItems,
		CreatedAt:         rm.CreatedAt,
		UpdatedAt:         rm.UpdatedAt,
	}
}

func FromBookingListItem(rm *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:               rm.ID,
		CustomerID:       rm.CustomerID,
		VehicleID:        rm.VehicleID,
		VehicleName:      rm.VehicleName,
		StartDate:        rm.StartDate,
		EndDate:          rm.EndDate,
		Status:           rm.Status,
		PaymentStatus:    rm.PaymentStatus,
		TotalAmountCents: rm.TotalAmountCents,
		CreatedAt:        rm.CreatedAt,
	}
}

func FromBookingPage(rows []*queries.BookingListItem, next *queries.Cursor) *BookingPageResponse {
	items := make([]*BookingListResponse, len(rows))
	for i, rm := range rows {
		items[i] = FromBookingListItem(rm)
	}
	resp := &BookingPageResponse{Items: items}
	if next != nil {
		cursor := next.After
		resp.NextCursor = &cursor
	}
	return resp
}

func FromQuote(q *booking.Quote) *QuoteResponse {
	lineItems := make([]LineItemResponse, len(q.LineItems))
	for i, li := range q.LineItems {
		lineItems[i] = LineItemResponse{
			AddOnID:        li.AddOnID,
			Name:           li.Name,
			DailyRateCents: li.DailyRate.Cents(),
			Quantity:       li.Quantity,
		}
	}

	return &QuoteResponse{
		TotalDays:         q.TotalDays,
		BaseAmountCents:   q.BaseAmount.Cents(),
		AddOnsAmountCents: q.AddOnsAmount.Cents(),
		TaxAmountCents:    q.TaxAmount.Cents(),
		TotalAmountCents:  q.TotalAmount.Cents(),
		LineItems:         lineItems,
	}
}
