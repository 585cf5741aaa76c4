package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeeTypeRequest carries the input for creating or updating a catalog entry
type FeeTypeRequest struct {
	Name          string
	UnitLabel     string
	DefaultRate   decimal.Decimal
	IsRecurring   bool
	ApplyAllRooms bool
}

// ApplyFeeRequest carries optional per-application overrides for bulk
// stamping. Nil fields fall back to the template defaults.
type ApplyFeeRequest struct {
	Rate     *decimal.Decimal
	Quantity *decimal.Decimal
}

// FeeService manages the fee catalog and the bulk stamping of fee instances
// onto charges.
type FeeService struct {
	feeRepo    billing.FeeTypeRepository
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	logger     *zap.Logger
}

// NewFeeService creates a new FeeService
func NewFeeService(
	feeRepo billing.FeeTypeRepository,
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	logger *zap.Logger,
) *FeeService {
	return &FeeService{
		feeRepo:    feeRepo,
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		logger:     logger,
	}
}

// CreateFeeType adds a catalog entry. Names are unique across the catalog.
func (s *FeeService) CreateFeeType(ctx context.Context, req FeeTypeRequest) (*billing.FeeType, error) {
	if existing, err := s.feeRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, shared.NewDomainError("FEE_TYPE_EXISTS", "A fee type with this name already exists")
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	feeType, err := billing.NewFeeType(req.Name, req.UnitLabel, req.DefaultRate, req.IsRecurring, req.ApplyAllRooms)
	if err != nil {
		return nil, err
	}
	if err := s.feeRepo.Save(ctx, feeType); err != nil {
		return nil, err
	}

	s.logger.Info("Fee type created",
		zap.String("fee_type_id", feeType.ID.String()),
		zap.String("name", feeType.Name))

	return feeType, nil
}

// UpdateFeeType edits a catalog entry. Existing stamped instances keep the
// rate and name they were created with.
func (s *FeeService) UpdateFeeType(ctx context.Context, id uuid.UUID, req FeeTypeRequest) (*billing.FeeType, error) {
	feeType, err := s.feeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if feeType.Name != req.Name {
		if existing, err := s.feeRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
			return nil, shared.NewDomainError("FEE_TYPE_EXISTS", "A fee type with this name already exists")
		} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if err := feeType.Update(req.Name, req.UnitLabel, req.DefaultRate, req.IsRecurring, req.ApplyAllRooms); err != nil {
		return nil, err
	}
	if err := s.feeRepo.Save(ctx, feeType); err != nil {
		return nil, err
	}
	return feeType, nil
}

// DeactivateFeeType retires a catalog entry without touching stamped instances
func (s *FeeService) DeactivateFeeType(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	feeType, err := s.feeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	feeType.Deactivate()
	if err := s.feeRepo.Save(ctx, feeType); err != nil {
		return nil, err
	}
	return feeType, nil
}

// GetFeeType returns a single catalog entry
func (s *FeeService) GetFeeType(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	return s.feeRepo.FindByID(ctx, id)
}

// ListFeeTypes returns catalog entries with pagination
func (s *FeeService) ListFeeTypes(ctx context.Context, filter shared.Filter) ([]billing.FeeType, int64, error) {
	feeTypes, err := s.feeRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.feeRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return feeTypes, total, nil
}

// ListActiveFeeTypes returns every active catalog entry, unpaginated. The
// fee-picker UI reads this when attaching fees to a charge.
func (s *FeeService) ListActiveFeeTypes(ctx context.Context) ([]billing.FeeType, error) {
	return s.feeRepo.FindActive(ctx)
}

// DeleteFeeType removes a catalog entry outright. Instances already stamped
// on charges carry their own copy of the name and rate, so they survive the
// deletion.
func (s *FeeService) DeleteFeeType(ctx context.Context, id uuid.UUID) error {
	feeType, err := s.feeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.feeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Fee type deleted",
		zap.String("fee_type_id", id.String()),
		zap.String("name", feeType.Name))
	return nil
}

// ApplyToCycle stamps an instance of the fee type onto every charge in the
// cycle that does not already carry one. The skip rule makes repeated
// application idempotent. Rate and quantity overrides from req take
// precedence over the template defaults.
func (s *FeeService) ApplyToCycle(ctx context.Context, feeTypeID, cycleID uuid.UUID, req ApplyFeeRequest) (int, error) {
	feeType, err := s.feeRepo.FindByID(ctx, feeTypeID)
	if err != nil {
		return 0, err
	}

	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return 0, err
	}
	if cycle.Closed {
		return 0, shared.ErrCycleClosed
	}

	charges, err := s.chargeRepo.FindByCycle(ctx, cycleID, billing.ChargeFilter{})
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := range charges {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		charge := &charges[i]
		if charge.HasFeeOfType(feeTypeID) || charge.IsClosed() {
			continue
		}
		fee, err := feeType.NewInstance(req.Rate, req.Quantity)
		if err != nil {
			return applied, err
		}
		if err := charge.AddFee(fee); err != nil {
			return applied, err
		}
		if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
			return applied, err
		}
		applied++
	}

	s.logger.Info("Fee type applied to cycle",
		zap.String("fee_type", feeType.Name),
		zap.String("cycle", cycle.Label()),
		zap.Int("applied", applied))

	return applied, nil
}

// ApplyToOpenCycles stamps the fee type onto every charge of every open
// cycle, skipping charges that already carry it.
func (s *FeeService) ApplyToOpenCycles(ctx context.Context, feeTypeID uuid.UUID, req ApplyFeeRequest) (int, error) {
	cycleIDs, err := s.cycleRepo.FindAllIDs(ctx, true)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, cycleID := range cycleIDs {
		n, err := s.ApplyToCycle(ctx, feeTypeID, cycleID, req)
		applied += n
		if err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// RemoveFromCycle retracts all instances stamped from the fee type across the
// cycle's charges. Manually added fees with the same name are untouched.
func (s *FeeService) RemoveFromCycle(ctx context.Context, feeTypeID, cycleID uuid.UUID) (int, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return 0, err
	}
	if cycle.Closed {
		return 0, shared.ErrCycleClosed
	}

	charges, err := s.chargeRepo.FindByCycle(ctx, cycleID, billing.ChargeFilter{})
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := range charges {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		charge := &charges[i]
		if charge.IsClosed() {
			continue
		}
		n := charge.RemoveFeesByType(feeTypeID)
		if n == 0 {
			continue
		}
		if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// RemoveFromOpenCycles retracts the fee type from every open cycle
func (s *FeeService) RemoveFromOpenCycles(ctx context.Context, feeTypeID uuid.UUID) (int, error) {
	cycleIDs, err := s.cycleRepo.FindAllIDs(ctx, true)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, cycleID := range cycleIDs {
		n, err := s.RemoveFromCycle(ctx, feeTypeID, cycleID)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}
