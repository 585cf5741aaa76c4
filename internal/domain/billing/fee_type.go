package billing

import (
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeType is a reusable catalog template for fee instances. It carries the
// default rate and the recurrence/apply-all-rooms flags that the fee catalog
// service reads when stamping or retracting instances; the entity itself
// enforces nothing beyond field validity.
type FeeType struct {
	shared.BaseAggregateRoot
	Name          string
	UnitLabel     string
	DefaultRate   decimal.Decimal
	IsRecurring   bool
	ApplyAllRooms bool
	Active        bool
}

// NewFeeType creates a new fee type catalog entry
func NewFeeType(name, unitLabel string, defaultRate decimal.Decimal, isRecurring, applyAllRooms bool) (*FeeType, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE_NAME", "Fee type name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE_NAME", "Fee type name cannot exceed 100 characters")
	}
	if defaultRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE_RATE", "Default rate cannot be negative")
	}

	return &FeeType{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		UnitLabel:         unitLabel,
		DefaultRate:       defaultRate,
		IsRecurring:       isRecurring,
		ApplyAllRooms:     applyAllRooms,
		Active:            true,
	}, nil
}

// Update changes the template fields
func (ft *FeeType) Update(name, unitLabel string, defaultRate decimal.Decimal, isRecurring, applyAllRooms bool) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FEE_TYPE_NAME", "Fee type name cannot be empty")
	}
	if defaultRate.IsNegative() {
		return shared.NewDomainError("INVALID_FEE_TYPE_RATE", "Default rate cannot be negative")
	}

	ft.Name = name
	ft.UnitLabel = unitLabel
	ft.DefaultRate = defaultRate
	ft.IsRecurring = isRecurring
	ft.ApplyAllRooms = applyAllRooms
	ft.Touch()
	ft.IncrementVersion()
	return nil
}

// Deactivate marks the template inactive; existing fee instances stamped from
// it are untouched
func (ft *FeeType) Deactivate() {
	ft.Active = false
	ft.Touch()
	ft.IncrementVersion()
}

// Activate marks the template active again
func (ft *FeeType) Activate() {
	ft.Active = true
	ft.Touch()
	ft.IncrementVersion()
}

// NewInstance stamps a fee instance from this template. A nil rate falls
// back to the template's default rate and a nil quantity defaults to 1, so
// an explicit zero rate stays a zero-amount line.
func (ft *FeeType) NewInstance(rate, quantity *decimal.Decimal) (FeeInstance, error) {
	effectiveRate := ft.DefaultRate
	if rate != nil {
		effectiveRate = *rate
	}
	effectiveQuantity := decimal.Zero
	if quantity != nil {
		effectiveQuantity = *quantity
	}
	fee, err := NewFeeInstance(ft.Name, effectiveRate, effectiveQuantity)
	if err != nil {
		return FeeInstance{}, err
	}
	feeTypeID := ft.ID
	fee.FeeTypeID = &feeTypeID
	fee.UnitLabel = ft.UnitLabel
	return fee, nil
}
