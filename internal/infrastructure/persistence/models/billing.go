package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentCycleModel is the persistence model for the PaymentCycle aggregate root.
type PaymentCycleModel struct {
	AggregateModel
	Year            int  `gorm:"not null;uniqueIndex:idx_cycle_year_month,priority:1"`
	Month           int  `gorm:"not null;uniqueIndex:idx_cycle_year_month,priority:2"`
	Closed          bool `gorm:"not null;default:false;index"`
	ClosedAt        *time.Time
	RolledForwardAt *time.Time
}

// TableName returns the table name for GORM
func (PaymentCycleModel) TableName() string {
	return "payment_cycles"
}

// ToDomain converts the persistence model to a domain PaymentCycle entity.
// Charges are loaded separately by the charge repository.
func (m *PaymentCycleModel) ToDomain() *billing.PaymentCycle {
	return &billing.PaymentCycle{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Year:            m.Year,
		Month:           m.Month,
		Closed:          m.Closed,
		ClosedAt:        m.ClosedAt,
		RolledForwardAt: m.RolledForwardAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentCycle entity.
func (m *PaymentCycleModel) FromDomain(pc *billing.PaymentCycle) {
	m.FromDomainAggregateRoot(pc.BaseAggregateRoot)
	m.Year = pc.Year
	m.Month = pc.Month
	m.Closed = pc.Closed
	m.ClosedAt = pc.ClosedAt
	m.RolledForwardAt = pc.RolledForwardAt
}

// PaymentCycleModelFromDomain creates a new persistence model from a domain PaymentCycle.
func PaymentCycleModelFromDomain(pc *billing.PaymentCycle) *PaymentCycleModel {
	m := &PaymentCycleModel{}
	m.FromDomain(pc)
	return m
}

// RoomChargeModel is the persistence model for the RoomCharge aggregate root.
// The two meter readings are flattened into columns so they can be filtered
// and summed in SQL; fee lines and payment history are JSONB.
type RoomChargeModel struct {
	AggregateModel
	CycleID            uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_charge_cycle_room,priority:1"`
	RoomCode           string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_charge_cycle_room,priority:2"`
	BaseRent           decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	ElectricPrevious   int64                   `gorm:"not null;default:0"`
	ElectricCurrent    *int64
	ElectricRate       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	ElectricConfirmed  bool                   `gorm:"not null;default:false"`
	WaterPrevious      int64                  `gorm:"not null;default:0"`
	WaterCurrent       *int64
	WaterRate          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	WaterConfirmed     bool                   `gorm:"not null;default:false"`
	Fees               billing.FeeInstances    `gorm:"type:jsonb;default:'[]'"`
	Payments           billing.PaymentRecords  `gorm:"type:jsonb;default:'[]'"`
	AmountPaid         decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status             billing.ChargeStatus    `gorm:"type:varchar(20);not null;default:'MISSING_DATA';index"`
	DueDate            *time.Time              `gorm:"index"`
	FirstSentAt        *time.Time
	LastReminderSentAt *time.Time
	PaidAt             *time.Time
	OverrideReason     string `gorm:"type:varchar(500)"`
	OverriddenAt       *time.Time
}

// TableName returns the table name for GORM
func (RoomChargeModel) TableName() string {
	return "room_charges"
}

// ToDomain converts the persistence model to a domain RoomCharge entity.
func (m *RoomChargeModel) ToDomain() *billing.RoomCharge {
	return &billing.RoomCharge{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		CycleID:  m.CycleID,
		RoomCode: m.RoomCode,
		BaseRent: m.BaseRent,
		Electric: billing.MeterReading{
			Previous:  m.ElectricPrevious,
			Current:   m.ElectricCurrent,
			Rate:      m.ElectricRate,
			Confirmed: m.ElectricConfirmed,
		},
		Water: billing.MeterReading{
			Previous:  m.WaterPrevious,
			Current:   m.WaterCurrent,
			Rate:      m.WaterRate,
			Confirmed: m.WaterConfirmed,
		},
		Fees:               m.Fees,
		Payments:           m.Payments,
		AmountPaid:         m.AmountPaid,
		Status:             m.Status,
		DueDate:            m.DueDate,
		FirstSentAt:        m.FirstSentAt,
		LastReminderSentAt: m.LastReminderSentAt,
		PaidAt:             m.PaidAt,
		OverrideReason:     m.OverrideReason,
		OverriddenAt:       m.OverriddenAt,
	}
}

// FromDomain populates the persistence model from a domain RoomCharge entity.
func (m *RoomChargeModel) FromDomain(rc *billing.RoomCharge) {
	m.FromDomainAggregateRoot(rc.BaseAggregateRoot)
	m.CycleID = rc.CycleID
	m.RoomCode = rc.RoomCode
	m.BaseRent = rc.BaseRent
	m.ElectricPrevious = rc.Electric.Previous
	m.ElectricCurrent = rc.Electric.Current
	m.ElectricRate = rc.Electric.Rate
	m.ElectricConfirmed = rc.Electric.Confirmed
	m.WaterPrevious = rc.Water.Previous
	m.WaterCurrent = rc.Water.Current
	m.WaterRate = rc.Water.Rate
	m.WaterConfirmed = rc.Water.Confirmed
	m.Fees = rc.Fees
	m.Payments = rc.Payments
	m.AmountPaid = rc.AmountPaid
	m.Status = rc.Status
	m.DueDate = rc.DueDate
	m.FirstSentAt = rc.FirstSentAt
	m.LastReminderSentAt = rc.LastReminderSentAt
	m.PaidAt = rc.PaidAt
	m.OverrideReason = rc.OverrideReason
	m.OverriddenAt = rc.OverriddenAt
}

// RoomChargeModelFromDomain creates a new persistence model from a domain RoomCharge.
func RoomChargeModelFromDomain(rc *billing.RoomCharge) *RoomChargeModel {
	m := &RoomChargeModel{}
	m.FromDomain(rc)
	return m
}

// FeeTypeModel is the persistence model for the FeeType aggregate root.
type FeeTypeModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	UnitLabel     string          `gorm:"type:varchar(50)"`
	DefaultRate   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsRecurring   bool            `gorm:"not null;default:false"`
	ApplyAllRooms bool            `gorm:"not null;default:false"`
	Active        bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (FeeTypeModel) TableName() string {
	return "fee_types"
}

// ToDomain converts the persistence model to a domain FeeType entity.
func (m *FeeTypeModel) ToDomain() *billing.FeeType {
	return &billing.FeeType{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Name:          m.Name,
		UnitLabel:     m.UnitLabel,
		DefaultRate:   m.DefaultRate,
		IsRecurring:   m.IsRecurring,
		ApplyAllRooms: m.ApplyAllRooms,
		Active:        m.Active,
	}
}

// FromDomain populates the persistence model from a domain FeeType entity.
func (m *FeeTypeModel) FromDomain(ft *billing.FeeType) {
	m.FromDomainAggregateRoot(ft.BaseAggregateRoot)
	m.Name = ft.Name
	m.UnitLabel = ft.UnitLabel
	m.DefaultRate = ft.DefaultRate
	m.IsRecurring = ft.IsRecurring
	m.ApplyAllRooms = ft.ApplyAllRooms
	m.Active = ft.Active
}

// FeeTypeModelFromDomain creates a new persistence model from a domain FeeType.
func FeeTypeModelFromDomain(ft *billing.FeeType) *FeeTypeModel {
	m := &FeeTypeModel{}
	m.FromDomain(ft)
	return m
}
