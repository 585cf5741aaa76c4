package billing

import (
	"github.com/shopspring/decimal"
)

// MeterKind identifies which utility meter a reading belongs to
type MeterKind string

const (
	MeterKindElectric MeterKind = "ELECTRIC"
	MeterKindWater    MeterKind = "WATER"
)

// IsValid checks if the meter kind is valid
func (k MeterKind) IsValid() bool {
	return k == MeterKindElectric || k == MeterKindWater
}

// String returns the string representation of MeterKind
func (k MeterKind) String() string {
	return string(k)
}

// MeterReading is a value object holding one utility meter's state for a
// room charge. Consumption and amount are computed from the current field
// values on every read; nothing derived is stored.
//
// Current is a pointer so "no reading entered yet" is distinguishable from a
// literal zero reading. A negative consumption (current < previous) is a
// data-quality signal surfaced to the caller, not an error: corrections can
// legitimately pass through a negative window before confirmation.
type MeterReading struct {
	Previous  int64           `json:"previous"`
	Current   *int64          `json:"current"`
	Rate      decimal.Decimal `json:"rate"`
	Confirmed bool            `json:"confirmed"`
}

// NewMeterReading creates an empty meter reading with the given unit rate
func NewMeterReading(rate decimal.Decimal) MeterReading {
	return MeterReading{
		Previous: 0,
		Current:  nil,
		Rate:     rate,
	}
}

// HasCurrent returns true once a current reading has been entered
func (r MeterReading) HasCurrent() bool {
	return r.Current != nil
}

// Consumption returns current - previous, or zero when no current reading
// has been entered. The result may be negative.
func (r MeterReading) Consumption() int64 {
	if r.Current == nil {
		return 0
	}
	return *r.Current - r.Previous
}

// Amount returns consumption multiplied by the unit rate. Confirmation is a
// workflow gate for sending bills, not a precondition for computing the
// amount.
func (r MeterReading) Amount() decimal.Decimal {
	return decimal.NewFromInt(r.Consumption()).Mul(r.Rate)
}

// HasNegativeConsumption reports the current-below-previous data-quality
// condition
func (r MeterReading) HasNegativeConsumption() bool {
	return r.Current != nil && *r.Current < r.Previous
}

// MeterUpdate carries a partial update to a meter reading; nil fields are
// left untouched
type MeterUpdate struct {
	Previous *int64
	Current  *int64
	Rate     *decimal.Decimal
}

// IsEmpty returns true when the update carries no fields
func (u MeterUpdate) IsEmpty() bool {
	return u.Previous == nil && u.Current == nil && u.Rate == nil
}

// Apply returns a new reading with the update's non-nil fields applied
func (r MeterReading) Apply(u MeterUpdate) MeterReading {
	next := r
	if u.Previous != nil {
		next.Previous = *u.Previous
	}
	if u.Current != nil {
		current := *u.Current
		next.Current = &current
	}
	if u.Rate != nil {
		next.Rate = *u.Rate
	}
	return next
}

// RolledForward returns the reading's state for the next metering window:
// this window's current becomes the opening previous, the current reading is
// cleared and confirmation is reset. A missing current reading keeps its
// previous, which makes rolling idempotent: a reading that was already
// rolled rolls to itself.
func (r MeterReading) RolledForward() MeterReading {
	previous := r.Previous
	if r.Current != nil {
		previous = *r.Current
	}
	return MeterReading{
		Previous:  previous,
		Current:   nil,
		Rate:      r.Rate,
		Confirmed: false,
	}
}
