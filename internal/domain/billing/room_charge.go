package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ChargeStatus represents where a room charge sits in the payment lifecycle
type ChargeStatus string

const (
	ChargeStatusMissingData   ChargeStatus = "MISSING_DATA"   // No usage data entered yet
	ChargeStatusReadyToSend   ChargeStatus = "READY_TO_SEND"  // Meter data present, bill can go out
	ChargeStatusSentFirst     ChargeStatus = "SENT_FIRST"     // Bill dispatched to the tenant
	ChargeStatusPartiallyPaid ChargeStatus = "PARTIALLY_PAID" // 0 < paid < total due
	ChargeStatusPaid          ChargeStatus = "PAID"           // Fully paid
	ChargeStatusClosed        ChargeStatus = "CLOSED"         // Sealed by cycle close, terminal
)

// IsValid checks if the status is a valid ChargeStatus
func (s ChargeStatus) IsValid() bool {
	switch s {
	case ChargeStatusMissingData, ChargeStatusReadyToSend, ChargeStatusSentFirst,
		ChargeStatusPartiallyPaid, ChargeStatusPaid, ChargeStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of ChargeStatus
func (s ChargeStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the charge is in a terminal state
func (s ChargeStatus) IsTerminal() bool {
	return s == ChargeStatusClosed
}

// CanAcceptPayment returns true if payments can be recorded in this status
func (s ChargeStatus) CanAcceptPayment() bool {
	return s != ChargeStatusClosed
}

// RoomCharge is the aggregate representing what one room owes for one billing
// cycle: the base rent snapshot, two meter readings, ad-hoc fee lines and the
// append-only payment history, together with the payment-status machine.
//
// RoomCode is a stable business key, not a foreign key to a mutable room
// record, so the charge stays meaningful if the room is later renamed or
// removed. BaseRent is copied from the rental agreement at seed time and never
// follows later agreement edits.
type RoomCharge struct {
	shared.BaseAggregateRoot
	CycleID            uuid.UUID
	RoomCode           string
	BaseRent           decimal.Decimal
	Electric           MeterReading
	Water              MeterReading
	Fees               FeeInstances
	Payments           PaymentRecords
	AmountPaid         decimal.Decimal
	Status             ChargeStatus
	DueDate            *time.Time
	FirstSentAt        *time.Time
	LastReminderSentAt *time.Time
	PaidAt             *time.Time
	OverrideReason     string
	OverriddenAt       *time.Time
}

// NewRoomCharge seeds a charge for one room in one cycle. Meter readings
// start empty with the default unit rates; due date comes from the billing
// defaults.
func NewRoomCharge(cycleID uuid.UUID, roomCode string, baseRent valueobject.Money, electricRate, waterRate decimal.Decimal, dueDate *time.Time) (*RoomCharge, error) {
	if cycleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CYCLE", "Cycle ID cannot be empty")
	}
	if roomCode == "" {
		return nil, shared.NewDomainError("INVALID_ROOM_CODE", "Room code cannot be empty")
	}
	if baseRent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BASE_RENT", "Base rent cannot be negative")
	}
	if electricRate.IsNegative() || waterRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_METER_RATE", "Meter rates cannot be negative")
	}

	rc := &RoomCharge{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CycleID:           cycleID,
		RoomCode:          roomCode,
		BaseRent:          baseRent.Amount(),
		Electric:          NewMeterReading(electricRate),
		Water:             NewMeterReading(waterRate),
		Fees:              FeeInstances{},
		Payments:          PaymentRecords{},
		AmountPaid:        decimal.Zero,
		Status:            ChargeStatusMissingData,
		DueDate:           dueDate,
	}

	rc.AddDomainEvent(NewRoomChargeCreatedEvent(rc))

	return rc, nil
}

// Derived totals. Never stored, always recomputed from current field values.

// UtilityFeesTotal returns the sum of both meter amounts
func (rc *RoomCharge) UtilityFeesTotal() decimal.Decimal {
	return rc.Electric.Amount().Add(rc.Water.Amount())
}

// CustomFeesTotal returns the sum of all ad-hoc fee line amounts
func (rc *RoomCharge) CustomFeesTotal() decimal.Decimal {
	return rc.Fees.Total()
}

// TotalDue returns base rent plus utilities plus custom fees
func (rc *RoomCharge) TotalDue() decimal.Decimal {
	return rc.BaseRent.Add(rc.UtilityFeesTotal()).Add(rc.CustomFeesTotal())
}

// AmountRemaining returns the unpaid balance, clamped at zero. An overpaid
// charge reports zero remaining; the overpayment itself is surfaced through
// IsOverpaid and the ChargeOverpaid event, never discarded silently.
func (rc *RoomCharge) AmountRemaining() decimal.Decimal {
	remaining := rc.TotalDue().Sub(rc.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsOverpaid reports whether recorded payments exceed the total due
func (rc *RoomCharge) IsOverpaid() bool {
	return rc.AmountPaid.GreaterThan(rc.TotalDue())
}

// IsPaid returns true if the charge is fully paid
func (rc *RoomCharge) IsPaid() bool {
	return rc.Status == ChargeStatusPaid
}

// IsClosed returns true if the charge has been sealed by cycle close
func (rc *RoomCharge) IsClosed() bool {
	return rc.Status == ChargeStatusClosed
}

// IsLate reports whether the charge is past its due date with money still
// owing. Late is an overlay computed at read time, never a stored state, so a
// charge can be partially paid and late at once without a state explosion.
func (rc *RoomCharge) IsLate(now time.Time) bool {
	if rc.DueDate == nil {
		return false
	}
	if rc.Status == ChargeStatusPaid || rc.Status == ChargeStatusClosed {
		return false
	}
	if !rc.AmountRemaining().IsPositive() {
		return false
	}
	return now.After(*rc.DueDate)
}

// DaysLate returns the number of days past due (0 if not late)
func (rc *RoomCharge) DaysLate(now time.Time) int {
	if !rc.IsLate(now) {
		return 0
	}
	return int(now.Sub(*rc.DueDate).Hours() / 24)
}

// HasUsageData returns true once either meter has a current reading entered
func (rc *RoomCharge) HasUsageData() bool {
	return rc.Electric.HasCurrent() || rc.Water.HasCurrent()
}

// RecordPayment appends a payment record, accumulates the running paid total
// and recomputes the payment status. Payments are append-only; nothing ever
// decreases AmountPaid except an explicit administrative override.
func (rc *RoomCharge) RecordPayment(amount valueobject.Money, paidAt time.Time, note string, isPartial bool) error {
	if !rc.Status.CanAcceptPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on charge in %s status", rc.Status))
	}

	record, err := NewPaymentRecord(amount, paidAt, note, isPartial)
	if err != nil {
		return err
	}

	rc.Payments = append(rc.Payments, *record)
	rc.AmountPaid = rc.AmountPaid.Add(record.Amount)

	rc.recomputePaymentStatus(record.PaidAt)

	if rc.IsOverpaid() {
		rc.AddDomainEvent(NewChargeOverpaidEvent(rc))
	}
	rc.AddDomainEvent(NewPaymentRecordedEvent(rc, record))

	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// recomputePaymentStatus applies the payment-driven transitions: any state
// becomes PAID once paid >= due (with due > 0), or PARTIALLY_PAID while
// 0 < paid < due. A payment against a zero total is neither: the charge
// keeps its state and the money surfaces as an overpayment.
func (rc *RoomCharge) recomputePaymentStatus(paidAt time.Time) {
	totalDue := rc.TotalDue()

	if totalDue.IsPositive() && rc.AmountPaid.GreaterThanOrEqual(totalDue) {
		if rc.Status != ChargeStatusPaid {
			rc.Status = ChargeStatusPaid
			rc.PaidAt = &paidAt
			rc.AddDomainEvent(NewChargePaidEvent(rc))
		}
		return
	}

	if rc.AmountPaid.IsPositive() && rc.AmountPaid.LessThan(totalDue) {
		rc.Status = ChargeStatusPartiallyPaid
		rc.PaidAt = nil
		return
	}

	// The total collapsed to zero under a payment status (e.g. all fees
	// removed from a zero-rent charge); fall back to the workflow state.
	if !totalDue.IsPositive() && (rc.Status == ChargeStatusPaid || rc.Status == ChargeStatusPartiallyPaid) {
		rc.Status = rc.workflowStatus()
		rc.PaidAt = nil
	}
}

// workflowStatus re-derives the pre-payment workflow state from the
// dispatch timestamp and entered usage data
func (rc *RoomCharge) workflowStatus() ChargeStatus {
	if rc.FirstSentAt != nil {
		return ChargeStatusSentFirst
	}
	if rc.HasUsageData() {
		return ChargeStatusReadyToSend
	}
	return ChargeStatusMissingData
}

// AddFee appends a fee line and recomputes totals. Adding a fee is not usage
// data, so it never drives the MISSING_DATA to READY_TO_SEND transition; it
// can however re-derive the payment status when money was already collected
// (e.g. the charge drops out of PAID because the total grew).
func (rc *RoomCharge) AddFee(fee FeeInstance) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot add fee to a closed charge")
	}
	if fee.Name == "" {
		return shared.NewDomainError("INVALID_FEE_NAME", "Fee name cannot be empty")
	}
	if fee.Rate.IsNegative() {
		return shared.NewDomainError("INVALID_FEE_RATE", "Fee rate cannot be negative")
	}
	if !fee.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_FEE_QUANTITY", "Fee quantity must be positive")
	}

	rc.Fees = append(rc.Fees, fee)
	rc.reconcilePaymentStatusAfterTotalChange()
	rc.AddDomainEvent(NewFeeAddedEvent(rc, fee))

	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// RemoveFee removes a fee line by its ID. Returns ErrNotFound when the ID is
// not on this charge; callers treat that as a stale-UI no-op.
func (rc *RoomCharge) RemoveFee(feeID uuid.UUID) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove fee from a closed charge")
	}

	for i, fee := range rc.Fees {
		if fee.ID == feeID {
			removed := fee
			rc.Fees = append(rc.Fees[:i], rc.Fees[i+1:]...)
			rc.reconcilePaymentStatusAfterTotalChange()
			rc.AddDomainEvent(NewFeeRemovedEvent(rc, removed))
			rc.Touch()
			rc.IncrementVersion()
			return nil
		}
	}

	return shared.ErrNotFound
}

// RemoveFeesByType removes every fee line stamped from the given catalog
// template and returns how many were removed
func (rc *RoomCharge) RemoveFeesByType(feeTypeID uuid.UUID) int {
	kept := make(FeeInstances, 0, len(rc.Fees))
	removed := 0
	for _, fee := range rc.Fees {
		if fee.IsFromType(feeTypeID) {
			removed++
			continue
		}
		kept = append(kept, fee)
	}
	if removed == 0 {
		return 0
	}

	rc.Fees = kept
	rc.reconcilePaymentStatusAfterTotalChange()
	rc.Touch()
	rc.IncrementVersion()
	return removed
}

// HasFeeOfType returns true if the charge already carries an instance of the
// given fee type. The fee catalog service uses this for its skip-if-present
// check, keeping at-most-one-per-type-per-charge as the steady state.
func (rc *RoomCharge) HasFeeOfType(feeTypeID uuid.UUID) bool {
	return rc.Fees.ContainsType(feeTypeID)
}

// reconcilePaymentStatusAfterTotalChange re-derives the payment-driven status
// after the total due moved under existing payments. A fee edit can push a
// paid charge back to partially paid, or tip a partially paid one over into
// paid; an overpayment created this way is surfaced, not clamped away.
func (rc *RoomCharge) reconcilePaymentStatusAfterTotalChange() {
	if !rc.AmountPaid.IsPositive() {
		return
	}

	paidAt := time.Now()
	if rc.PaidAt != nil {
		paidAt = *rc.PaidAt
	}
	rc.recomputePaymentStatus(paidAt)

	if rc.IsOverpaid() {
		rc.AddDomainEvent(NewChargeOverpaidEvent(rc))
	}
}

// SetMeterReading applies a partial update to one meter. Supplying the first
// current reading is what moves the charge from MISSING_DATA to
// READY_TO_SEND: a bill is never ready until usage has at least been entered,
// even though base rent alone is known.
func (rc *RoomCharge) SetMeterReading(kind MeterKind, update MeterUpdate) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update meter reading on a closed charge")
	}
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_METER_KIND", fmt.Sprintf("Unknown meter kind %q", kind))
	}
	if update.IsEmpty() {
		return shared.NewDomainError("EMPTY_METER_UPDATE", "Meter update must carry at least one field")
	}
	if update.Previous != nil && *update.Previous < 0 {
		return shared.NewDomainError("INVALID_METER_VALUE", "Previous reading cannot be negative")
	}
	if update.Current != nil && *update.Current < 0 {
		return shared.NewDomainError("INVALID_METER_VALUE", "Current reading cannot be negative")
	}
	if update.Rate != nil && update.Rate.IsNegative() {
		return shared.NewDomainError("INVALID_METER_RATE", "Meter rate cannot be negative")
	}

	switch kind {
	case MeterKindElectric:
		rc.Electric = rc.Electric.Apply(update)
	case MeterKindWater:
		rc.Water = rc.Water.Apply(update)
	}

	if rc.Status == ChargeStatusMissingData && rc.HasUsageData() {
		rc.Status = ChargeStatusReadyToSend
	}
	rc.reconcilePaymentStatusAfterTotalChange()

	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// ConfirmMeterReading marks one meter's reading as confirmed. Confirmation
// gates downstream workflow (sending bills); it is never required for
// computing amounts.
func (rc *RoomCharge) ConfirmMeterReading(kind MeterKind) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot confirm meter reading on a closed charge")
	}
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_METER_KIND", fmt.Sprintf("Unknown meter kind %q", kind))
	}

	switch kind {
	case MeterKindElectric:
		if !rc.Electric.HasCurrent() {
			return shared.NewDomainError("NO_READING", "Cannot confirm a meter with no current reading")
		}
		rc.Electric.Confirmed = true
	case MeterKindWater:
		if !rc.Water.HasCurrent() {
			return shared.NewDomainError("NO_READING", "Cannot confirm a meter with no current reading")
		}
		rc.Water.Confirmed = true
	}

	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// MarkSent records that the bill was dispatched to the tenant
func (rc *RoomCharge) MarkSent(at time.Time) error {
	if rc.Status != ChargeStatusReadyToSend {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark charge in %s status as sent", rc.Status))
	}

	rc.Status = ChargeStatusSentFirst
	rc.FirstSentAt = &at
	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// MarkReminderSent records that a payment reminder went out
func (rc *RoomCharge) MarkReminderSent(at time.Time) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot record a reminder on a closed charge")
	}

	rc.LastReminderSentAt = &at
	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// OverridePayment is the administrative correction path. Payment records are
// append-only and never negative, so a wrong payment is corrected by
// overriding the running paid total with a recorded reason, leaving the
// original records in place as history.
func (rc *RoomCharge) OverridePayment(newAmountPaid decimal.Decimal, reason string) error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot override payments on a closed charge")
	}
	if newAmountPaid.IsNegative() {
		return shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Overridden paid amount cannot be negative")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Override reason is required")
	}

	now := time.Now()
	rc.AmountPaid = newAmountPaid
	rc.OverrideReason = reason
	rc.OverriddenAt = &now

	totalDue := rc.TotalDue()
	switch {
	case totalDue.IsPositive() && rc.AmountPaid.GreaterThanOrEqual(totalDue):
		rc.Status = ChargeStatusPaid
		if rc.PaidAt == nil {
			rc.PaidAt = &now
		}
	case rc.AmountPaid.IsPositive():
		rc.Status = ChargeStatusPartiallyPaid
		rc.PaidAt = nil
	default:
		rc.PaidAt = nil
		if rc.HasUsageData() {
			rc.Status = ChargeStatusReadyToSend
		} else {
			rc.Status = ChargeStatusMissingData
		}
		if rc.FirstSentAt != nil {
			rc.Status = ChargeStatusSentFirst
		}
	}

	rc.AddDomainEvent(NewPaymentOverriddenEvent(rc, reason))

	rc.UpdatedAt = now
	rc.IncrementVersion()

	return nil
}

// RollForward advances the meter state into the next metering window: each
// meter's current reading becomes its previous, current is cleared and
// confirmation reset, and the charge drops back to MISSING_DATA. A meter
// with no current reading keeps its previous, so rolling an already-rolled
// charge again is a no-op on the meters. Fees, payments and base rent are
// untouched; they stay as the historical record.
func (rc *RoomCharge) RollForward() {
	rc.Electric = rc.Electric.RolledForward()
	rc.Water = rc.Water.RolledForward()
	rc.Status = ChargeStatusMissingData
	rc.Touch()
	rc.IncrementVersion()
}

// Close seals the charge when its cycle closes. Only charges that collected
// money are sealed; unpaid charges keep their state as an open record.
func (rc *RoomCharge) Close() error {
	if rc.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Charge is already closed")
	}
	if rc.Status != ChargeStatusPaid && rc.Status != ChargeStatusPartiallyPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close charge in %s status", rc.Status))
	}

	rc.Status = ChargeStatusClosed
	rc.Touch()
	rc.IncrementVersion()

	return nil
}

// GetBaseRentMoney returns the base rent as Money
func (rc *RoomCharge) GetBaseRentMoney() valueobject.Money {
	return valueobject.NewMoneyVND(rc.BaseRent)
}

// GetAmountPaidMoney returns the running paid total as Money
func (rc *RoomCharge) GetAmountPaidMoney() valueobject.Money {
	return valueobject.NewMoneyVND(rc.AmountPaid)
}

// GetTotalDueMoney returns the total due as Money
func (rc *RoomCharge) GetTotalDueMoney() valueobject.Money {
	return valueobject.NewMoneyVND(rc.TotalDue())
}

// PaymentCount returns the number of payments recorded
func (rc *RoomCharge) PaymentCount() int {
	return len(rc.Payments)
}
