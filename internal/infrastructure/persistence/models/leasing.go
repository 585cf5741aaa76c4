package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalAgreementModel represents a rental agreement row. The billing engine
// only reads agreements; they are managed by the tenancy side of the system.
type RentalAgreementModel struct {
	BaseModel
	RoomCode   string          `gorm:"type:varchar(50);not null;index:idx_agreement_room"`
	TenantName string          `gorm:"type:varchar(200);not null"`
	RentAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StartDate  time.Time       `gorm:"not null"`
	EndDate    *time.Time      `gorm:"index"`
	Active     bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for RentalAgreementModel
func (RentalAgreementModel) TableName() string {
	return "rental_agreements"
}

// RoomOccupancyModel represents a room occupancy row. Occupancy is a lighter
// record than an agreement and is used as the seeding fallback when a room is
// lived in without a formal agreement on file.
type RoomOccupancyModel struct {
	BaseModel
	RoomCode   string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_occupancy_room"`
	OccupiedAt time.Time  `gorm:"not null"`
	VacatedAt  *time.Time `gorm:"index"`
}

// TableName returns the table name for RoomOccupancyModel
func (RoomOccupancyModel) TableName() string {
	return "room_occupancies"
}
