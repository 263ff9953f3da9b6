package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const hoursPerDay = 24

// DateRange is a rental period. Time-of-day is accepted but billing is
// day-granular: any partial day beyond whole days counts as a full day.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	if !end.After(start) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{start: start, end: end}, nil
}

func (r DateRange) Start() time.Time {
	return r.start
}

func (r DateRange) End() time.Time {
	return r.end
}

// TotalDays rounds partial days up: exactly 2 days is 2, 2 days and one
// hour is 3.
func (r DateRange) TotalDays() int {
	hours := r.end.Sub(r.start).Hours()
	days := int(hours) / hoursPerDay
	if hours > float64(days*hoursPerDay) {
		days++
	}
	return days
}

// Overlaps uses inclusive boundaries on both ends: a rental ending on day X
// conflicts with one starting on day X. Same-day turnover is intentionally
// disallowed; the schema exclusion constraint uses the same '[]' bounds.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !other.start.After(r.end)
}

func (r DateRange) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

func (r DateRange) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s]", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}

// Money is an amount in cents of the booking currency.
type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func NewMoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Dollars() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) MultiplyInt(n int) Money {
	return Money{cents: m.cents * int64(n)}
}

func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Location is a pickup or drop-off point, free text with a branch default.
type Location struct {
	value string
}

const DefaultLocation = "Main Office"

func NewLocation(value string) Location {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Location{value: DefaultLocation}
	}
	return Location{value: trimmed}
}

func (l Location) String() string {
	if l.value == "" {
		return DefaultLocation
	}
	return l.value
}

type Note struct {
	value string
}

func NewNote(value string) Note {
	return Note{value: strings.TrimSpace(value)}
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
