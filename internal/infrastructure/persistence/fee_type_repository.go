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

// GormFeeTypeRepository implements FeeTypeRepository using GORM
type GormFeeTypeRepository struct {
	db *gorm.DB
}

// NewGormFeeTypeRepository creates a new GormFeeTypeRepository
func NewGormFeeTypeRepository(db *gorm.DB) *GormFeeTypeRepository {
	return &GormFeeTypeRepository{db: db}
}

// FindByID finds a fee type by its ID
func (r *GormFeeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	var model models.FeeTypeModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a fee type by its unique name
func (r *GormFeeTypeRepository) FindByName(ctx context.Context, name string) (*billing.FeeType, error) {
	var model models.FeeTypeModel
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds fee types with filtering
func (r *GormFeeTypeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.FeeType, error) {
	var feeTypeModels []models.FeeTypeModel
	query := r.db.WithContext(ctx).Model(&models.FeeTypeModel{}).
		Order("name ASC")
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyPagination(query, filter)

	if err := query.Find(&feeTypeModels).Error; err != nil {
		return nil, err
	}
	feeTypes := make([]billing.FeeType, len(feeTypeModels))
	for i, model := range feeTypeModels {
		feeTypes[i] = *model.ToDomain()
	}
	return feeTypes, nil
}

// FindActive finds all active fee types
func (r *GormFeeTypeRepository) FindActive(ctx context.Context) ([]billing.FeeType, error) {
	var feeTypeModels []models.FeeTypeModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&feeTypeModels).Error; err != nil {
		return nil, err
	}
	feeTypes := make([]billing.FeeType, len(feeTypeModels))
	for i, model := range feeTypeModels {
		feeTypes[i] = *model.ToDomain()
	}
	return feeTypes, nil
}

// Save creates or updates a fee type
func (r *GormFeeTypeRepository) Save(ctx context.Context, feeType *billing.FeeType) error {
	model := models.FeeTypeModelFromDomain(feeType)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a fee type from the catalog
func (r *GormFeeTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FeeTypeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts fee types matching the filter
func (r *GormFeeTypeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FeeTypeModel{})
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
