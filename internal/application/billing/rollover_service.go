package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// RolloverService advances a cycle's charges into the next billing period:
// current meter values become the new previous values and every charge drops
// back to MISSING_DATA awaiting fresh readings.
type RolloverService struct {
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	logger     *zap.Logger
}

// NewRolloverService creates a new RolloverService
func NewRolloverService(
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	logger *zap.Logger,
) *RolloverService {
	return &RolloverService{
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		logger:     logger,
	}
}

// RollForward rolls every charge in the cycle. A cycle that was already
// rolled refuses a second pass unless force is set. The guard commits before
// the per-charge loop so a concurrent run loses the optimistic-lock race;
// the per-charge roll itself is idempotent (a rolled meter rolls to itself),
// so a forced resume after a mid-loop failure finishes the remaining charges
// without corrupting the ones already rolled.
func (s *RolloverService) RollForward(ctx context.Context, cycleID uuid.UUID, force bool) (*billing.PaymentCycle, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if err := cycle.MarkRolledForward(time.Now(), force); err != nil {
		return nil, err
	}
	if err := s.cycleRepo.SaveWithLock(ctx, cycle); err != nil {
		return nil, err
	}

	charges, err := s.chargeRepo.FindByCycle(ctx, cycleID, billing.ChargeFilter{})
	if err != nil {
		return nil, err
	}
	for i := range charges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		charge := &charges[i]
		charge.RollForward()
		if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
			return nil, err
		}
	}

	cycle.Charges = charges
	s.logger.Info("Cycle rolled forward",
		zap.String("cycle", cycle.Label()),
		zap.Int("charges", len(charges)),
		zap.Bool("force", force))

	return cycle, nil
}
