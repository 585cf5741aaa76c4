package persistence

import (
	"context"

	"github.com/rently/backend/internal/domain/leasing"
	"github.com/rently/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLeasingSource implements the leasing read ports (AgreementSource and
// OccupancySource) against the rental_agreements and room_occupancies tables.
type GormLeasingSource struct {
	db *gorm.DB
}

// NewGormLeasingSource creates a new GormLeasingSource
func NewGormLeasingSource(db *gorm.DB) *GormLeasingSource {
	return &GormLeasingSource{db: db}
}

// ActiveAgreements returns one seed projection per room with an active
// agreement. When a room carries several active agreements only the most
// recently started one is used.
func (s *GormLeasingSource) ActiveAgreements(ctx context.Context) ([]leasing.ActiveAgreement, error) {
	var agreementModels []models.RentalAgreementModel
	if err := s.db.WithContext(ctx).
		Where("active = ? AND (end_date IS NULL OR end_date > NOW())", true).
		Order("room_code ASC, start_date DESC").
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}

	agreements := make([]leasing.ActiveAgreement, 0, len(agreementModels))
	seen := make(map[string]bool, len(agreementModels))
	for _, model := range agreementModels {
		if seen[model.RoomCode] {
			continue
		}
		seen[model.RoomCode] = true
		agreements = append(agreements, leasing.ActiveAgreement{
			RoomCode:   model.RoomCode,
			RentAmount: model.RentAmount,
		})
	}
	return agreements, nil
}

// OccupiedRoomCodes returns the codes of rooms with a current occupancy record
func (s *GormLeasingSource) OccupiedRoomCodes(ctx context.Context) ([]string, error) {
	var roomCodes []string
	if err := s.db.WithContext(ctx).
		Model(&models.RoomOccupancyModel{}).
		Where("vacated_at IS NULL").
		Order("room_code ASC").
		Pluck("room_code", &roomCodes).Error; err != nil {
		return nil, err
	}
	return roomCodes, nil
}
