//go:build unit || e2e

package builder

import (
	"time"

	dombooking "fleetbook/internal/domain/booking"
	reqdto "fleetbook/internal/handler/dto/request"
	"fleetbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	VehicleID       uuid.UUID
	VehicleName     string
	StartDate       time.Time
	EndDate         time.Time
	TotalDays       int
	DailyRateCents  int64
	PickupLocation  string
	DropoffLocation string
	Status          string
	PaymentStatus   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Now().UTC().Truncate(time.Second)
	return &BookingBuilder{
		ID:              uuid.New(),
		CustomerID:      uuid.New(),
		VehicleID:       uuid.New(),
		VehicleName:     "Compact Sedan",
		StartDate:       now.AddDate(0, 0, 7),
		EndDate:         now.AddDate(0, 0, 9),
		TotalDays:       2,
		DailyRateCents:  4500,
		PickupLocation:  "main depot",
		DropoffLocation: "main depot",
		Status:          "pending",
		PaymentStatus:   "pending",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		VehicleID:       b.VehicleID,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
	}
}

func (b *BookingBuilder) BuildQuoteRequestDTO() reqdto.QuoteRequest {
	return reqdto.QuoteRequest{
		VehicleID: b.VehicleID,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	base := b.DailyRateCents * int64(b.TotalDays)
	tax := (base*1000 + 5000) / 10000
	return &queries.BookingView{
		ID:                b.ID,
		CustomerID:        b.CustomerID,
		VehicleID:         b.VehicleID,
		VehicleName:       b.VehicleName,
		StartDate:         b.StartDate,
		EndDate:           b.EndDate,
		TotalDays:         b.TotalDays,
		PickupLocation:    b.PickupLocation,
		DropoffLocation:   b.DropoffLocation,
		BaseAmountCents:   base,
		AddOnsAmountCents: 0,
		TaxAmountCents:    tax,
		TotalAmountCents:  base + tax,
		Status:            b.Status,
		PaymentStatus:     b.PaymentStatus,
		LineItems:         []queries.LineItemView{},
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	view := b.BuildView()
	return &queries.BookingListItem{
		ID:               view.ID,
		CustomerID:       view.CustomerID,
		VehicleID:        view.VehicleID,
		VehicleName:      view.VehicleName,
		StartDate:        view.StartDate,
		EndDate:          view.EndDate,
		Status:           view.Status,
		PaymentStatus:    view.PaymentStatus,
		TotalAmountCents: view.TotalAmountCents,
		CreatedAt:        view.CreatedAt,
	}
}

func (b *BookingBuilder) BuildQuote() *dombooking.Quote {
	base := dombooking.NewMoney(b.DailyRateCents * int64(b.TotalDays))
	tax := dombooking.NewMoney((base.Cents()*1000 + 5000) / 10000)
	return &dombooking.Quote{
		TotalDays:    b.TotalDays,
		BaseAmount:   base,
		AddOnsAmount: dombooking.NewMoney(0),
		TaxAmount:    tax,
		TotalAmount:  base.Add(tax),
		LineItems:    []dombooking.LineItem{},
	}
}
