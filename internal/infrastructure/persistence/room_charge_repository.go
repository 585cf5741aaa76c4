package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// payableStatuses are the statuses with money potentially still owing
var payableStatuses = []billing.ChargeStatus{
	billing.ChargeStatusMissingData,
	billing.ChargeStatusReadyToSend,
	billing.ChargeStatusSentFirst,
	billing.ChargeStatusPartiallyPaid,
}

// GormRoomChargeRepository implements RoomChargeRepository using GORM
type GormRoomChargeRepository struct {
	db *gorm.DB
}

// NewGormRoomChargeRepository creates a new GormRoomChargeRepository
func NewGormRoomChargeRepository(db *gorm.DB) *GormRoomChargeRepository {
	return &GormRoomChargeRepository{db: db}
}

// FindByID finds a room charge by its ID
func (r *GormRoomChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.RoomCharge, error) {
	var model models.RoomChargeModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCycle finds the charges of one cycle, ordered by room code
func (r *GormRoomChargeRepository) FindByCycle(ctx context.Context, cycleID uuid.UUID, filter billing.ChargeFilter) ([]billing.RoomCharge, error) {
	var chargeModels []models.RoomChargeModel
	query := r.db.WithContext(ctx).Model(&models.RoomChargeModel{}).
		Where("cycle_id = ?", cycleID)
	if filter.RoomCode != nil {
		query = query.Where("room_code = ?", *filter.RoomCode)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query = query.Order("room_code ASC")

	if err := query.Find(&chargeModels).Error; err != nil {
		return nil, err
	}
	charges := make([]billing.RoomCharge, len(chargeModels))
	for i, model := range chargeModels {
		charges[i] = *model.ToDomain()
	}
	return charges, nil
}

// FindByCycleAndRoomCode finds one room's charge within a cycle
func (r *GormRoomChargeRepository) FindByCycleAndRoomCode(ctx context.Context, cycleID uuid.UUID, roomCode string) (*billing.RoomCharge, error) {
	var model models.RoomChargeModel
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND room_code = ?", cycleID, roomCode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnpaidDueBefore finds charges with money owing whose due date is before
// the cutoff, oldest due date first
func (r *GormRoomChargeRepository) FindUnpaidDueBefore(ctx context.Context, cutoff time.Time) ([]billing.RoomCharge, error) {
	var chargeModels []models.RoomChargeModel
	if err := r.db.WithContext(ctx).
		Where("due_date < ? AND status IN ?", cutoff, payableStatuses).
		Order("due_date ASC, room_code ASC").
		Find(&chargeModels).Error; err != nil {
		return nil, err
	}
	charges := make([]billing.RoomCharge, len(chargeModels))
	for i, model := range chargeModels {
		charges[i] = *model.ToDomain()
	}
	return charges, nil
}

// Save creates or updates a room charge
func (r *GormRoomChargeRepository) Save(ctx context.Context, charge *billing.RoomCharge) error {
	model := models.RoomChargeModelFromDomain(charge)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") is required:
// struct Updates skip zero-valued fields, which would drop cleared meter
// readings, reset confirmations and nil timestamps from the UPDATE.
func (r *GormRoomChargeRepository) SaveWithLock(ctx context.Context, charge *billing.RoomCharge) error {
	model := models.RoomChargeModelFromDomain(charge)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", charge.ID, charge.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountByCycle counts the charges in a cycle
func (r *GormRoomChargeRepository) CountByCycle(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RoomChargeModel{}).
		Where("cycle_id = ?", cycleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingByCycle sums the unpaid balance across a cycle. Totals are
// derived per charge, so the sum is computed in Go rather than SQL.
func (r *GormRoomChargeRepository) SumOutstandingByCycle(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	charges, err := r.FindByCycle(ctx, cycleID, billing.ChargeFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range charges {
		total = total.Add(charges[i].AmountRemaining())
	}
	return total, nil
}
