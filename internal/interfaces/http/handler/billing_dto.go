package handler

import (
	"time"

	"github.com/rently/backend/internal/domain/billing"
)

// CycleResponse represents a payment cycle in API responses
type CycleResponse struct {
	ID              string           `json:"id"`
	Year            int              `json:"year"`
	Month           int              `json:"month"`
	Label           string           `json:"label"`
	Closed          bool             `json:"closed"`
	ClosedAt        *string          `json:"closed_at,omitempty"`
	RolledForwardAt *string          `json:"rolled_forward_at,omitempty"`
	Charges         []ChargeResponse `json:"charges,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	Version         int              `json:"version"`
}

// MeterResponse represents one utility meter on a charge
type MeterResponse struct {
	Previous    int64  `json:"previous"`
	Current     *int64 `json:"current,omitempty"`
	Consumption int64  `json:"consumption"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
	Confirmed   bool   `json:"confirmed"`
}

// FeeResponse represents one fee line on a charge
type FeeResponse struct {
	ID        string  `json:"id"`
	FeeTypeID *string `json:"fee_type_id,omitempty"`
	Name      string  `json:"name"`
	UnitLabel string  `json:"unit_label,omitempty"`
	Rate      string  `json:"rate"`
	Quantity  string  `json:"quantity"`
	Amount    string  `json:"amount"`
}

// PaymentResponse represents one recorded payment on a charge
type PaymentResponse struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at"`
	Note      string `json:"note,omitempty"`
	IsPartial bool   `json:"is_partial"`
}

// ChargeResponse represents a room charge in API responses
type ChargeResponse struct {
	ID                 string            `json:"id"`
	CycleID            string            `json:"cycle_id"`
	RoomCode           string            `json:"room_code"`
	BaseRent           string            `json:"base_rent"`
	Electric           MeterResponse     `json:"electric"`
	Water              MeterResponse     `json:"water"`
	Fees               []FeeResponse     `json:"fees"`
	Payments           []PaymentResponse `json:"payments"`
	TotalDue           string            `json:"total_due"`
	AmountPaid         string            `json:"amount_paid"`
	AmountRemaining    string            `json:"amount_remaining"`
	Status             string            `json:"status"`
	DueDate            *string           `json:"due_date,omitempty"`
	FirstSentAt        *string           `json:"first_sent_at,omitempty"`
	LastReminderSentAt *string           `json:"last_reminder_sent_at,omitempty"`
	PaidAt             *string           `json:"paid_at,omitempty"`
	OverrideReason     string            `json:"override_reason,omitempty"`
	OverriddenAt       *string           `json:"overridden_at,omitempty"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
	Version            int               `json:"version"`
}

// FeeTypeResponse represents a fee catalog entry in API responses
type FeeTypeResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UnitLabel     string `json:"unit_label,omitempty"`
	DefaultRate   string `json:"default_rate"`
	IsRecurring   bool   `json:"is_recurring"`
	ApplyAllRooms bool   `json:"apply_all_rooms"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Version       int    `json:"version"`
}

// AppliedCountResponse reports how many charges a bulk fee operation touched
type AppliedCountResponse struct {
	Affected int `json:"affected"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// toCycleResponse converts a domain cycle, including loaded charges
func toCycleResponse(cycle *billing.PaymentCycle) CycleResponse {
	resp := CycleResponse{
		ID:              cycle.ID.String(),
		Year:            cycle.Year,
		Month:           cycle.Month,
		Label:           cycle.Label(),
		Closed:          cycle.Closed,
		ClosedAt:        formatTimePtr(cycle.ClosedAt),
		RolledForwardAt: formatTimePtr(cycle.RolledForwardAt),
		CreatedAt:       formatTime(cycle.CreatedAt),
		UpdatedAt:       formatTime(cycle.UpdatedAt),
		Version:         cycle.Version,
	}
	if len(cycle.Charges) > 0 {
		resp.Charges = make([]ChargeResponse, 0, len(cycle.Charges))
		for i := range cycle.Charges {
			resp.Charges = append(resp.Charges, toChargeResponse(&cycle.Charges[i]))
		}
	}
	return resp
}

func toMeterResponse(reading billing.MeterReading) MeterResponse {
	return MeterResponse{
		Previous:    reading.Previous,
		Current:     reading.Current,
		Consumption: reading.Consumption(),
		Rate:        reading.Rate.String(),
		Amount:      reading.Amount().String(),
		Confirmed:   reading.Confirmed,
	}
}

// toChargeResponse converts a domain charge with its derived totals
func toChargeResponse(charge *billing.RoomCharge) ChargeResponse {
	fees := make([]FeeResponse, 0, len(charge.Fees))
	for _, fee := range charge.Fees {
		fr := FeeResponse{
			ID:        fee.ID.String(),
			Name:      fee.Name,
			UnitLabel: fee.UnitLabel,
			Rate:      fee.Rate.String(),
			Quantity:  fee.Quantity.String(),
			Amount:    fee.Amount().String(),
		}
		if fee.FeeTypeID != nil {
			id := fee.FeeTypeID.String()
			fr.FeeTypeID = &id
		}
		fees = append(fees, fr)
	}

	payments := make([]PaymentResponse, 0, len(charge.Payments))
	for _, payment := range charge.Payments {
		payments = append(payments, PaymentResponse{
			ID:        payment.ID.String(),
			Amount:    payment.Amount.String(),
			PaidAt:    formatTime(payment.PaidAt),
			Note:      payment.Note,
			IsPartial: payment.IsPartial,
		})
	}

	return ChargeResponse{
		ID:                 charge.ID.String(),
		CycleID:            charge.CycleID.String(),
		RoomCode:           charge.RoomCode,
		BaseRent:           charge.BaseRent.String(),
		Electric:           toMeterResponse(charge.Electric),
		Water:              toMeterResponse(charge.Water),
		Fees:               fees,
		Payments:           payments,
		TotalDue:           charge.TotalDue().String(),
		AmountPaid:         charge.AmountPaid.String(),
		AmountRemaining:    charge.AmountRemaining().String(),
		Status:             charge.Status.String(),
		DueDate:            formatTimePtr(charge.DueDate),
		FirstSentAt:        formatTimePtr(charge.FirstSentAt),
		LastReminderSentAt: formatTimePtr(charge.LastReminderSentAt),
		PaidAt:             formatTimePtr(charge.PaidAt),
		OverrideReason:     charge.OverrideReason,
		OverriddenAt:       formatTimePtr(charge.OverriddenAt),
		CreatedAt:          formatTime(charge.CreatedAt),
		UpdatedAt:          formatTime(charge.UpdatedAt),
		Version:            charge.Version,
	}
}

func toFeeTypeResponse(feeType *billing.FeeType) FeeTypeResponse {
	return FeeTypeResponse{
		ID:            feeType.ID.String(),
		Name:          feeType.Name,
		UnitLabel:     feeType.UnitLabel,
		DefaultRate:   feeType.DefaultRate.String(),
		IsRecurring:   feeType.IsRecurring,
		ApplyAllRooms: feeType.ApplyAllRooms,
		Active:        feeType.Active,
		CreatedAt:     formatTime(feeType.CreatedAt),
		UpdatedAt:     formatTime(feeType.UpdatedAt),
		Version:       feeType.Version,
	}
}
