package booking

import "github.com/google/uuid"

// Tax applied to the pre-tax subtotal, in basis points.
const TaxRateBp = 1000 // 10%

// AddOnSelection is a resolved add-on with its catalog rate at quote time.
type AddOnSelection struct {
	ID        uuid.UUID
	Name      string
	DailyRate Money
	Quantity  int
}

// LineItem is the snapshot persisted with the booking so historical pricing
// survives later catalog changes.
type LineItem struct {
	AddOnID   uuid.UUID
	Name      string
	DailyRate Money
	Quantity  int
}

type Quote struct {
	TotalDays    int
	BaseAmount   Money
	AddOnsAmount Money
	TaxAmount    Money
	TotalAmount  Money
	LineItems    []LineItem
}

type PriceCalculator interface {
	Quote(dailyRate Money, rng DateRange, addOns []AddOnSelection) (Quote, error)
}

// StandardCalculator prices a rental deterministically:
// base = dailyRate * ceil-days, each add-on contributes
// rate * quantity * ceil-days, tax is a flat rate on the pre-tax subtotal
// rounded half-up to cents. Pure: no clock, no I/O.
type StandardCalculator struct {
	TaxRateBp int64
}

func NewStandardCalculator() *StandardCalculator {
	return &StandardCalculator{TaxRateBp: TaxRateBp}
}

func (c *StandardCalculator) Quote(dailyRate Money, rng DateRange, addOns []AddOnSelection) (Quote, error) {
	if rng.IsZero() {
		return Quote{}, ErrInvalidRange
	}
	totalDays := rng.TotalDays()
	if totalDays < 1 {
		return Quote{}, ErrInvalidRange
	}
	if dailyRate.IsNegative() {
		return Quote{}, ErrNegativePrice
	}

	base := dailyRate.MultiplyInt(totalDays)

	addOnsAmount := NewMoney(0)
	lineItems := make([]LineItem, 0, len(addOns))
	for _, sel := range addOns {
		if sel.ID == uuid.Nil || sel.DailyRate.IsNegative() {
			return Quote{}, ErrUnknownAddOn
		}
		quantity := sel.Quantity
		if quantity < 1 {
			quantity = 1
		}
		addOnsAmount = addOnsAmount.Add(sel.DailyRate.MultiplyInt(quantity).MultiplyInt(totalDays))
		lineItems = append(lineItems, LineItem{
			AddOnID:   sel.ID,
			Name:      sel.Name,
			DailyRate: sel.DailyRate,
			Quantity:  quantity,
		})
	}

	subtotal := base.Add(addOnsAmount)
	tax := roundHalfUpBp(subtotal, c.TaxRateBp)

	return Quote{
		TotalDays:    totalDays,
		BaseAmount:   base,
		AddOnsAmount: addOnsAmount,
		TaxAmount:    tax,
		TotalAmount:  subtotal.Add(tax),
		LineItems:    lineItems,
	}, nil
}

// roundHalfUpBp applies a basis-point rate with half-up rounding on cents,
// in integer arithmetic so identical inputs always produce identical output.
func roundHalfUpBp(amount Money, rateBp int64) Money {
	return NewMoney((amount.Cents()*rateBp + 5000) / 10000)
}
