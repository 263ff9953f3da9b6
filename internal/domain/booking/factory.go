package booking

import (
	"github.com/google/uuid"
)

// VehicleSpec is the slice of the vehicle catalog the factory needs.
type VehicleSpec struct {
	ID         uuid.UUID
	DailyRate  Money
	IsBookable bool
}

// AddOnSpec is a resolved add-on catalog entry plus the requested quantity.
type AddOnSpec struct {
	ID         uuid.UUID
	Name       string
	DailyRate  Money
	IsBookable bool
	Quantity   int
}

type Factory struct {
	Calculator PriceCalculator
}

func NewFactory(calculator PriceCalculator) *Factory {
	return &Factory{Calculator: calculator}
}

// PriceQuote prices a request without creating anything. Disabled add-ons
// are rejected, never silently dropped.
func (f *Factory) PriceQuote(vehicle VehicleSpec, rng DateRange, addOns []AddOnSpec) (Quote, error) {
	if !vehicle.IsBookable {
		return Quote{}, ErrVehicleNotBookable
	}

	selections := make([]AddOnSelection, 0, len(addOns))
	for _, spec := range addOns {
		if spec.ID == uuid.Nil || !spec.IsBookable {
			return Quote{}, ErrUnknownAddOn
		}
		selections = append(selections, AddOnSelection{
			ID:        spec.ID,
			Name:      spec.Name,
			DailyRate: spec.DailyRate,
			Quantity:  spec.Quantity,
		})
	}

	return f.Calculator.Quote(vehicle.DailyRate, rng, selections)
}

// CreateBooking prices the request and assembles a pending booking with the
// pricing and line items snapshotted. Availability is the caller's concern;
// the factory stays free of I/O.
func (f *Factory) CreateBooking(
	vehicle VehicleSpec,
	customerID uuid.UUID,
	rng DateRange,
	addOns []AddOnSpec,
	pickup, dropoff Location,
	note Note,
) (*Booking, error) {
	quote, err := f.PriceQuote(vehicle, rng, addOns)
	if err != nil {
		return nil, err
	}

	return NewBooking(customerID, vehicle.ID, rng, quote, pickup, dropoff, note)
}
