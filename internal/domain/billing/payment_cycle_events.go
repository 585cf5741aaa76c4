package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
)

// PaymentCycleCreatedEvent is raised when a new monthly cycle is created
type PaymentCycleCreatedEvent struct {
	shared.BaseDomainEvent
	CycleID uuid.UUID `json:"cycle_id"`
	Year    int       `json:"year"`
	Month   int       `json:"month"`
}

// EventType returns the event type name
func (e *PaymentCycleCreatedEvent) EventType() string {
	return "PaymentCycleCreated"
}

// NewPaymentCycleCreatedEvent creates a new PaymentCycleCreatedEvent
func NewPaymentCycleCreatedEvent(pc *PaymentCycle) *PaymentCycleCreatedEvent {
	return &PaymentCycleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCycleCreated", "PaymentCycle", pc.ID),
		CycleID:         pc.ID,
		Year:            pc.Year,
		Month:           pc.Month,
	}
}

// PaymentCycleClosedEvent is raised when a cycle is sealed
type PaymentCycleClosedEvent struct {
	shared.BaseDomainEvent
	CycleID  uuid.UUID  `json:"cycle_id"`
	Year     int        `json:"year"`
	Month    int        `json:"month"`
	ClosedAt *time.Time `json:"closed_at"`
}

// EventType returns the event type name
func (e *PaymentCycleClosedEvent) EventType() string {
	return "PaymentCycleClosed"
}

// NewPaymentCycleClosedEvent creates a new PaymentCycleClosedEvent
func NewPaymentCycleClosedEvent(pc *PaymentCycle) *PaymentCycleClosedEvent {
	return &PaymentCycleClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCycleClosed", "PaymentCycle", pc.ID),
		CycleID:         pc.ID,
		Year:            pc.Year,
		Month:           pc.Month,
		ClosedAt:        pc.ClosedAt,
	}
}

// PaymentCycleRolledForwardEvent is raised when meter state is promoted into
// the next metering window
type PaymentCycleRolledForwardEvent struct {
	shared.BaseDomainEvent
	CycleID         uuid.UUID  `json:"cycle_id"`
	Year            int        `json:"year"`
	Month           int        `json:"month"`
	RolledForwardAt *time.Time `json:"rolled_forward_at"`
}

// EventType returns the event type name
func (e *PaymentCycleRolledForwardEvent) EventType() string {
	return "PaymentCycleRolledForward"
}

// NewPaymentCycleRolledForwardEvent creates a new PaymentCycleRolledForwardEvent
func NewPaymentCycleRolledForwardEvent(pc *PaymentCycle) *PaymentCycleRolledForwardEvent {
	return &PaymentCycleRolledForwardEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCycleRolledForward", "PaymentCycle", pc.ID),
		CycleID:         pc.ID,
		Year:            pc.Year,
		Month:           pc.Month,
		RolledForwardAt: pc.RolledForwardAt,
	}
}
