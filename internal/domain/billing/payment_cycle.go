package billing

import (
	"fmt"
	"time"

	"github.com/rently/backend/internal/domain/shared"
)

// PaymentCycle is the aggregate root for one calendar month's billing run.
// (Year, Month) is unique; the cycle owns one RoomCharge per room code.
// Cycles are never deleted: Closed is a terminal flag set by an explicit
// close, and RolledForwardAt guards the rollover operation against a second
// invocation zeroing out the promoted readings.
type PaymentCycle struct {
	shared.BaseAggregateRoot
	Year            int
	Month           int
	Closed          bool
	ClosedAt        *time.Time
	RolledForwardAt *time.Time

	// Charges is populated by the repository when the cycle is loaded with
	// its charges; it is not persisted through the cycle row itself.
	Charges []RoomCharge
}

// NewPaymentCycle creates a cycle for the given calendar month
func NewPaymentCycle(year, month int) (*PaymentCycle, error) {
	if year < 2000 || year > 2200 {
		return nil, shared.NewDomainError("INVALID_CYCLE_YEAR", fmt.Sprintf("Year %d is out of range", year))
	}
	if month < 1 || month > 12 {
		return nil, shared.NewDomainError("INVALID_CYCLE_MONTH", fmt.Sprintf("Month %d is out of range", month))
	}

	pc := &PaymentCycle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Year:              year,
		Month:             month,
	}

	pc.AddDomainEvent(NewPaymentCycleCreatedEvent(pc))

	return pc, nil
}

// Label returns the cycle's month in YYYY-MM form
func (pc *PaymentCycle) Label() string {
	return fmt.Sprintf("%04d-%02d", pc.Year, pc.Month)
}

// PeriodStart returns the first instant of the billing month
func (pc *PaymentCycle) PeriodStart() time.Time {
	return time.Date(pc.Year, time.Month(pc.Month), 1, 0, 0, 0, 0, time.Local)
}

// PeriodEnd returns the last instant of the billing month
func (pc *PaymentCycle) PeriodEnd() time.Time {
	return pc.PeriodStart().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// HasCharge returns true if a charge for the room code is already seeded.
// Seeding uses this to stay idempotent across partial-seed retries.
func (pc *PaymentCycle) HasCharge(roomCode string) bool {
	for _, ch := range pc.Charges {
		if ch.RoomCode == roomCode {
			return true
		}
	}
	return false
}

// ChargeByRoomCode returns the charge for a room code, or nil
func (pc *PaymentCycle) ChargeByRoomCode(roomCode string) *RoomCharge {
	for i := range pc.Charges {
		if pc.Charges[i].RoomCode == roomCode {
			return &pc.Charges[i]
		}
	}
	return nil
}

// IsMutable returns true while the cycle accepts mutations
func (pc *PaymentCycle) IsMutable() bool {
	return !pc.Closed
}

// Close marks the cycle terminal. The application layer cascades the close to
// paid and partially-paid charges; unpaid ones keep their state as history.
func (pc *PaymentCycle) Close(at time.Time) error {
	if pc.Closed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cycle %s is already closed", pc.Label()))
	}

	pc.Closed = true
	pc.ClosedAt = &at
	pc.Touch()
	pc.IncrementVersion()

	pc.AddDomainEvent(NewPaymentCycleClosedEvent(pc))

	return nil
}

// CanRollForward reports whether the rollover guard allows another run
func (pc *PaymentCycle) CanRollForward() bool {
	return pc.RolledForwardAt == nil
}

// MarkRolledForward records that the rollover ran. A second rollover would
// overwrite previous readings with zeros, so it is rejected unless the caller
// forces it.
func (pc *PaymentCycle) MarkRolledForward(at time.Time, force bool) error {
	if pc.Closed {
		return shared.NewDomainError("CYCLE_CLOSED", fmt.Sprintf("Cycle %s is closed", pc.Label()))
	}
	if !pc.CanRollForward() && !force {
		return shared.NewDomainError("ALREADY_ROLLED", fmt.Sprintf("Cycle %s was already rolled forward at %s", pc.Label(), pc.RolledForwardAt.Format(time.RFC3339)))
	}

	pc.RolledForwardAt = &at
	pc.Touch()
	pc.IncrementVersion()

	pc.AddDomainEvent(NewPaymentCycleRolledForwardEvent(pc))

	return nil
}

// NextPeriod returns the (year, month) following this cycle
func (pc *PaymentCycle) NextPeriod() (int, int) {
	if pc.Month == 12 {
		return pc.Year + 1, 1
	}
	return pc.Year, pc.Month + 1
}
