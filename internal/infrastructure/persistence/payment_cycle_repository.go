package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentCycleRepository implements PaymentCycleRepository using GORM
type GormPaymentCycleRepository struct {
	db *gorm.DB
}

// NewGormPaymentCycleRepository creates a new GormPaymentCycleRepository
func NewGormPaymentCycleRepository(db *gorm.DB) *GormPaymentCycleRepository {
	return &GormPaymentCycleRepository{db: db}
}

// FindByID finds a payment cycle by its ID
func (r *GormPaymentCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentCycle, error) {
	var model models.PaymentCycleModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByYearMonth finds the cycle for a calendar month
func (r *GormPaymentCycleRepository) FindByYearMonth(ctx context.Context, year, month int) (*billing.PaymentCycle, error) {
	var model models.PaymentCycleModel
	if err := r.db.WithContext(ctx).
		Where("year = ? AND month = ?", year, month).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds payment cycles with filtering, newest month first
func (r *GormPaymentCycleRepository) FindAll(ctx context.Context, filter billing.CycleFilter) ([]billing.PaymentCycle, error) {
	var cycleModels []models.PaymentCycleModel
	query := r.applyCycleFilter(r.db.WithContext(ctx).Model(&models.PaymentCycleModel{}), filter).
		Order("year DESC, month DESC")
	query = applyPagination(query, filter.Filter)

	if err := query.Find(&cycleModels).Error; err != nil {
		return nil, err
	}
	cycles := make([]billing.PaymentCycle, len(cycleModels))
	for i, model := range cycleModels {
		cycles[i] = *model.ToDomain()
	}
	return cycles, nil
}

// FindAllIDs returns the IDs of every cycle, optionally restricted to open ones
func (r *GormPaymentCycleRepository) FindAllIDs(ctx context.Context, openOnly bool) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.PaymentCycleModel{}).
		Order("year ASC, month ASC")
	if openOnly {
		query = query.Where("closed = ?", false)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a payment cycle
func (r *GormPaymentCycleRepository) Save(ctx context.Context, cycle *billing.PaymentCycle) error {
	model := models.PaymentCycleModelFromDomain(cycle)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") keeps zero-valued
// columns in the UPDATE; struct Updates would skip them.
func (r *GormPaymentCycleRepository) SaveWithLock(ctx context.Context, cycle *billing.PaymentCycle) error {
	model := models.PaymentCycleModelFromDomain(cycle)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", cycle.ID, cycle.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts cycles matching the filter
func (r *GormPaymentCycleRepository) Count(ctx context.Context, filter billing.CycleFilter) (int64, error) {
	var count int64
	query := r.applyCycleFilter(r.db.WithContext(ctx).Model(&models.PaymentCycleModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormPaymentCycleRepository) applyCycleFilter(query *gorm.DB, filter billing.CycleFilter) *gorm.DB {
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Closed != nil {
		query = query.Where("closed = ?", *filter.Closed)
	}
	return query
}

// applyPagination applies page/page-size from the shared filter; zero values
// mean no pagination.
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}
