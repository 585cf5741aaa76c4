package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentRecord represents one payment applied to a room charge. Records are
// append-only: once recorded they are never mutated or removed. Corrections
// are handled by an administrative override on the charge, not by negative
// records.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
	Note      string          `json:"note,omitempty"`
	IsPartial bool            `json:"is_partial"`
}

// NewPaymentRecord creates a new payment record; the amount must be positive
func NewPaymentRecord(amount valueobject.Money, paidAt time.Time, note string, isPartial bool) (*PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount.Amount(),
		PaidAt:    paidAt,
		Note:      note,
		IsPartial: isPartial,
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (p *PaymentRecord) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(p.Amount)
}

// PaymentRecords is a slice of PaymentRecord that implements GORM
// Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of all recorded payment amounts
func (p PaymentRecords) Total() decimal.Decimal {
	total := decimal.Zero
	for _, record := range p {
		total = total.Add(record.Amount)
	}
	return total
}
