package billing

import (
	"time"

	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillingDefaults carries the seed-time defaults for new room charges:
// utility unit rates and the day of month rent falls due. It is injected into
// the seeding and meter-entry paths rather than read from ambient settings.
type BillingDefaults struct {
	ElectricRate decimal.Decimal
	WaterRate    decimal.Decimal
	DueDay       int
	Currency     valueobject.Currency
}

// NewBillingDefaults validates and builds billing defaults
func NewBillingDefaults(electricRate, waterRate decimal.Decimal, dueDay int, currency valueobject.Currency) (BillingDefaults, error) {
	if electricRate.IsNegative() {
		return BillingDefaults{}, shared.NewDomainError("INVALID_DEFAULT_RATE", "Default electric rate cannot be negative")
	}
	if waterRate.IsNegative() {
		return BillingDefaults{}, shared.NewDomainError("INVALID_DEFAULT_RATE", "Default water rate cannot be negative")
	}
	if dueDay < 1 || dueDay > 28 {
		return BillingDefaults{}, shared.NewDomainError("INVALID_DUE_DAY", "Due day must be between 1 and 28")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return BillingDefaults{
		ElectricRate: electricRate,
		WaterRate:    waterRate,
		DueDay:       dueDay,
		Currency:     currency,
	}, nil
}

// DueDateFor returns the due date for a billing month
func (d BillingDefaults) DueDateFor(year, month int) time.Time {
	return time.Date(year, time.Month(month), d.DueDay, 0, 0, 0, 0, time.Local)
}
