package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/leasing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CycleService owns the payment-cycle lifecycle: idempotent get-or-create
// with seeding from active rental agreements, additive reseeding, and the
// explicit close operation.
type CycleService struct {
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	agreements leasing.AgreementSource
	occupancy  leasing.OccupancySource
	defaults   billing.BillingDefaults
	logger     *zap.Logger
}

// NewCycleService creates a new CycleService
func NewCycleService(
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	agreements leasing.AgreementSource,
	occupancy leasing.OccupancySource,
	defaults billing.BillingDefaults,
	logger *zap.Logger,
) *CycleService {
	return &CycleService{
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		agreements: agreements,
		occupancy:  occupancy,
		defaults:   defaults,
		logger:     logger,
	}
}

// GetOrCreate returns the cycle for (year, month), creating and seeding it on
// first request. Repeated calls never duplicate the cycle or its charges.
func (s *CycleService) GetOrCreate(ctx context.Context, year, month int) (*billing.PaymentCycle, error) {
	cycle, err := s.cycleRepo.FindByYearMonth(ctx, year, month)
	if err == nil {
		return s.loadCharges(ctx, cycle)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up cycle %04d-%02d: %w", year, month, err)
	}

	cycle, err = billing.NewPaymentCycle(year, month)
	if err != nil {
		return nil, err
	}
	if err := s.cycleRepo.Save(ctx, cycle); err != nil {
		// A concurrent caller may have created the same month; fall back to
		// the winner and seed against it, the skip-if-present rule makes the
		// retry safe.
		if existing, findErr := s.cycleRepo.FindByYearMonth(ctx, year, month); findErr == nil {
			cycle = existing
		} else {
			return nil, fmt.Errorf("failed to create cycle %04d-%02d: %w", year, month, err)
		}
	}

	if err := s.seed(ctx, cycle); err != nil {
		return nil, err
	}

	s.logger.Info("Payment cycle created",
		zap.String("cycle", cycle.Label()),
		zap.Int("charges", len(cycle.Charges)))

	return cycle, nil
}

// Reseed re-runs the seeding against an existing cycle. It is additive only:
// rooms that already carry a charge are skipped, so payment history is never
// reset. Used when agreements change after a cycle was first created.
func (s *CycleService) Reseed(ctx context.Context, cycleID uuid.UUID) (*billing.PaymentCycle, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Closed {
		return nil, shared.ErrCycleClosed
	}

	if err := s.seed(ctx, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

// seed creates one RoomCharge per active agreement, falling back to occupancy
// records when no agreements exist. Each charge is its own commit: a cancel
// or failure mid-way leaves the committed charges in place and the operation
// is safely re-runnable.
func (s *CycleService) seed(ctx context.Context, cycle *billing.PaymentCycle) error {
	if _, err := s.loadCharges(ctx, cycle); err != nil {
		return err
	}

	seeds, err := s.collectSeeds(ctx)
	if err != nil {
		return err
	}

	dueDate := s.defaults.DueDateFor(cycle.Year, cycle.Month)
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seed.RoomCode == "" {
			return shared.NewDomainError("INVALID_ROOM_CODE", "Cannot seed a charge without a room code")
		}
		if cycle.HasCharge(seed.RoomCode) {
			continue
		}

		charge, err := billing.NewRoomCharge(
			cycle.ID,
			seed.RoomCode,
			valueobject.NewMoneyVND(seed.RentAmount),
			s.defaults.ElectricRate,
			s.defaults.WaterRate,
			&dueDate,
		)
		if err != nil {
			return err
		}
		if err := s.chargeRepo.Save(ctx, charge); err != nil {
			return fmt.Errorf("failed to seed charge for room %s: %w", seed.RoomCode, err)
		}
		cycle.Charges = append(cycle.Charges, *charge)
	}

	return nil
}

// collectSeeds resolves the seed set. The two tenant-tracking mechanisms in
// the surrounding system are not always both populated, so zero active
// agreements falls back to occupied rooms with a zero base rent.
func (s *CycleService) collectSeeds(ctx context.Context) ([]leasing.ActiveAgreement, error) {
	agreements, err := s.agreements.ActiveAgreements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active agreements: %w", err)
	}
	if len(agreements) > 0 {
		return agreements, nil
	}

	rooms, err := s.occupancy.OccupiedRoomCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied rooms: %w", err)
	}

	seeds := make([]leasing.ActiveAgreement, 0, len(rooms))
	for _, roomCode := range rooms {
		seeds = append(seeds, leasing.ActiveAgreement{RoomCode: roomCode, RentAmount: decimal.Zero})
	}
	return seeds, nil
}

// Close seals the cycle and cascades the close to its paid and partially-paid
// charges. Unpaid charges keep their state as an open historical record.
func (s *CycleService) Close(ctx context.Context, cycleID uuid.UUID) (*billing.PaymentCycle, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	if err := cycle.Close(time.Now()); err != nil {
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
		charge := &charges[i]
		if charge.Status != billing.ChargeStatusPaid && charge.Status != billing.ChargeStatusPartiallyPaid {
			continue
		}
		if err := charge.Close(); err != nil {
			return nil, err
		}
		if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
			return nil, err
		}
	}

	cycle.Charges = charges
	s.logger.Info("Payment cycle closed", zap.String("cycle", cycle.Label()))

	return cycle, nil
}

// Get returns a cycle with its charges loaded
func (s *CycleService) Get(ctx context.Context, cycleID uuid.UUID) (*billing.PaymentCycle, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return s.loadCharges(ctx, cycle)
}

// List returns cycles matching the filter, without charges
func (s *CycleService) List(ctx context.Context, filter billing.CycleFilter) ([]billing.PaymentCycle, int64, error) {
	cycles, err := s.cycleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.cycleRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return cycles, total, nil
}

func (s *CycleService) loadCharges(ctx context.Context, cycle *billing.PaymentCycle) (*billing.PaymentCycle, error) {
	charges, err := s.chargeRepo.FindByCycle(ctx, cycle.ID, billing.ChargeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load charges for cycle %s: %w", cycle.Label(), err)
	}
	cycle.Charges = charges
	return cycle, nil
}
