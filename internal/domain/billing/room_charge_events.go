package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RoomChargeCreatedEvent is raised when a charge is seeded into a cycle
type RoomChargeCreatedEvent struct {
	shared.BaseDomainEvent
	ChargeID uuid.UUID       `json:"charge_id"`
	CycleID  uuid.UUID       `json:"cycle_id"`
	RoomCode string          `json:"room_code"`
	BaseRent decimal.Decimal `json:"base_rent"`
}

// EventType returns the event type name
func (e *RoomChargeCreatedEvent) EventType() string {
	return "RoomChargeCreated"
}

// NewRoomChargeCreatedEvent creates a new RoomChargeCreatedEvent
func NewRoomChargeCreatedEvent(rc *RoomCharge) *RoomChargeCreatedEvent {
	return &RoomChargeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RoomChargeCreated", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		CycleID:         rc.CycleID,
		RoomCode:        rc.RoomCode,
		BaseRent:        rc.BaseRent,
	}
}

// PaymentRecordedEvent is raised for every payment applied to a charge
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ChargeID        uuid.UUID       `json:"charge_id"`
	RoomCode        string          `json:"room_code"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAt          time.Time       `json:"paid_at"`
	IsPartial       bool            `json:"is_partial"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(rc *RoomCharge, record *PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		PaymentID:       record.ID,
		Amount:          record.Amount,
		PaidAt:          record.PaidAt,
		IsPartial:       record.IsPartial,
		AmountPaid:      rc.AmountPaid,
		AmountRemaining: rc.AmountRemaining(),
	}
}

// ChargePaidEvent is raised when a charge becomes fully paid
type ChargePaidEvent struct {
	shared.BaseDomainEvent
	ChargeID   uuid.UUID       `json:"charge_id"`
	RoomCode   string          `json:"room_code"`
	TotalDue   decimal.Decimal `json:"total_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *ChargePaidEvent) EventType() string {
	return "ChargePaid"
}

// NewChargePaidEvent creates a new ChargePaidEvent
func NewChargePaidEvent(rc *RoomCharge) *ChargePaidEvent {
	paidAt := time.Now()
	if rc.PaidAt != nil {
		paidAt = *rc.PaidAt
	}
	return &ChargePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ChargePaid", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		TotalDue:        rc.TotalDue(),
		AmountPaid:      rc.AmountPaid,
		PaidAt:          paidAt,
	}
}

// ChargeOverpaidEvent flags the data-quality condition where recorded
// payments exceed the total due (e.g. fees removed after payment). The
// remaining balance clamps to zero but the overpayment is never silently
// discarded.
type ChargeOverpaidEvent struct {
	shared.BaseDomainEvent
	ChargeID   uuid.UUID       `json:"charge_id"`
	RoomCode   string          `json:"room_code"`
	TotalDue   decimal.Decimal `json:"total_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Overpaid   decimal.Decimal `json:"overpaid"`
}

// EventType returns the event type name
func (e *ChargeOverpaidEvent) EventType() string {
	return "ChargeOverpaid"
}

// NewChargeOverpaidEvent creates a new ChargeOverpaidEvent
func NewChargeOverpaidEvent(rc *RoomCharge) *ChargeOverpaidEvent {
	return &ChargeOverpaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ChargeOverpaid", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		TotalDue:        rc.TotalDue(),
		AmountPaid:      rc.AmountPaid,
		Overpaid:        rc.AmountPaid.Sub(rc.TotalDue()),
	}
}

// FeeAddedEvent is raised when a fee line is appended to a charge
type FeeAddedEvent struct {
	shared.BaseDomainEvent
	ChargeID  uuid.UUID       `json:"charge_id"`
	RoomCode  string          `json:"room_code"`
	FeeID     uuid.UUID       `json:"fee_id"`
	FeeTypeID *uuid.UUID      `json:"fee_type_id,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *FeeAddedEvent) EventType() string {
	return "FeeAdded"
}

// NewFeeAddedEvent creates a new FeeAddedEvent
func NewFeeAddedEvent(rc *RoomCharge, fee FeeInstance) *FeeAddedEvent {
	return &FeeAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeAdded", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		FeeID:           fee.ID,
		FeeTypeID:       fee.FeeTypeID,
		Name:            fee.Name,
		Amount:          fee.Amount(),
	}
}

// FeeRemovedEvent is raised when a fee line is removed from a charge
type FeeRemovedEvent struct {
	shared.BaseDomainEvent
	ChargeID uuid.UUID       `json:"charge_id"`
	RoomCode string          `json:"room_code"`
	FeeID    uuid.UUID       `json:"fee_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *FeeRemovedEvent) EventType() string {
	return "FeeRemoved"
}

// NewFeeRemovedEvent creates a new FeeRemovedEvent
func NewFeeRemovedEvent(rc *RoomCharge, fee FeeInstance) *FeeRemovedEvent {
	return &FeeRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeRemoved", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		FeeID:           fee.ID,
		Name:            fee.Name,
		Amount:          fee.Amount(),
	}
}

// PaymentOverriddenEvent records the administrative correction path: the
// running paid total was overwritten with an operator-supplied reason
type PaymentOverriddenEvent struct {
	shared.BaseDomainEvent
	ChargeID   uuid.UUID       `json:"charge_id"`
	RoomCode   string          `json:"room_code"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Reason     string          `json:"reason"`
}

// EventType returns the event type name
func (e *PaymentOverriddenEvent) EventType() string {
	return "PaymentOverridden"
}

// NewPaymentOverriddenEvent creates a new PaymentOverriddenEvent
func NewPaymentOverriddenEvent(rc *RoomCharge, reason string) *PaymentOverriddenEvent {
	return &PaymentOverriddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentOverridden", "RoomCharge", rc.ID),
		ChargeID:        rc.ID,
		RoomCode:        rc.RoomCode,
		AmountPaid:      rc.AmountPaid,
		Reason:          reason,
	}
}
