package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeInstance is one concrete charge line on a RoomCharge: rate multiplied by
// quantity, optionally stamped from a FeeType template. The FeeTypeID is a
// weak reference used for lookup and bulk removal only; the catalog entry may
// be edited or deactivated independently without touching existing instances.
type FeeInstance struct {
	ID        uuid.UUID       `json:"id"`
	FeeTypeID *uuid.UUID      `json:"fee_type_id,omitempty"`
	Name      string          `json:"name"`
	UnitLabel string          `json:"unit_label,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewFeeInstance creates a manual fee line. A zero quantity defaults to 1.
func NewFeeInstance(name string, rate, quantity decimal.Decimal) (FeeInstance, error) {
	if name == "" {
		return FeeInstance{}, shared.NewDomainError("INVALID_FEE_NAME", "Fee name cannot be empty")
	}
	if rate.IsNegative() {
		return FeeInstance{}, shared.NewDomainError("INVALID_FEE_RATE", "Fee rate cannot be negative")
	}
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	if !quantity.IsPositive() {
		return FeeInstance{}, shared.NewDomainError("INVALID_FEE_QUANTITY", "Fee quantity must be positive")
	}
	return FeeInstance{
		ID:       uuid.New(),
		Name:     name,
		Rate:     rate,
		Quantity: quantity,
	}, nil
}

// Amount returns rate * quantity, recomputed on every read
func (f FeeInstance) Amount() decimal.Decimal {
	return f.Rate.Mul(f.Quantity)
}

// IsFromType returns true if the instance was stamped from the given catalog
// template
func (f FeeInstance) IsFromType(feeTypeID uuid.UUID) bool {
	return f.FeeTypeID != nil && *f.FeeTypeID == feeTypeID
}

// FeeInstances is a slice of FeeInstance that implements GORM Scanner/Valuer
// for JSONB storage
type FeeInstances []FeeInstance

// Value implements driver.Valuer interface for GORM to store as JSONB
func (f FeeInstances) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (f *FeeInstances) Scan(value interface{}) error {
	if value == nil {
		*f = FeeInstances{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan FeeInstances: unsupported type")
	}

	if len(bytes) == 0 {
		*f = FeeInstances{}
		return nil
	}

	return json.Unmarshal(bytes, f)
}

// Total returns the sum of all fee line amounts
func (f FeeInstances) Total() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range f {
		total = total.Add(fee.Amount())
	}
	return total
}

// ContainsType returns true if any instance references the given fee type
func (f FeeInstances) ContainsType(feeTypeID uuid.UUID) bool {
	for _, fee := range f {
		if fee.IsFromType(feeTypeID) {
			return true
		}
	}
	return false
}
