package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MeterUpdateRequest carries a partial meter update for one meter
type MeterUpdateRequest struct {
	Previous *int64
	Current  *int64
	Rate     *decimal.Decimal
}

// AddFeeRequest carries the input for attaching a fee to a single charge.
// Rate and Quantity are optional for catalog fees, where nil falls back to
// the template defaults.
type AddFeeRequest struct {
	FeeTypeID *uuid.UUID
	Name      string
	UnitLabel string
	Rate      *decimal.Decimal
	Quantity  *decimal.Decimal
}

// ChargeService handles per-charge mutations: meter readings, ad-hoc fees
// and the sent markers used by the invoice workflow.
type ChargeService struct {
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	feeRepo    billing.FeeTypeRepository
	logger     *zap.Logger
}

// NewChargeService creates a new ChargeService
func NewChargeService(
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	feeRepo billing.FeeTypeRepository,
	logger *zap.Logger,
) *ChargeService {
	return &ChargeService{
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		feeRepo:    feeRepo,
		logger:     logger,
	}
}

// Get returns a single charge
func (s *ChargeService) Get(ctx context.Context, chargeID uuid.UUID) (*billing.RoomCharge, error) {
	return s.chargeRepo.FindByID(ctx, chargeID)
}

// GetByRoom returns one room's charge within a cycle, looked up by the
// room's business code
func (s *ChargeService) GetByRoom(ctx context.Context, cycleID uuid.UUID, roomCode string) (*billing.RoomCharge, error) {
	return s.chargeRepo.FindByCycleAndRoomCode(ctx, cycleID, roomCode)
}

// SetMeterReading applies a partial update to one of the charge's meters
func (s *ChargeService) SetMeterReading(ctx context.Context, chargeID uuid.UUID, kind billing.MeterKind, req MeterUpdateRequest) (*billing.RoomCharge, error) {
	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.SetMeterReading(kind, billing.MeterUpdate{
			Previous: req.Previous,
			Current:  req.Current,
			Rate:     req.Rate,
		})
	})
}

// ConfirmMeterReading acknowledges a reading whose consumption came out
// negative, typically after a meter replacement
func (s *ChargeService) ConfirmMeterReading(ctx context.Context, chargeID uuid.UUID, kind billing.MeterKind) (*billing.RoomCharge, error) {
	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.ConfirmMeterReading(kind)
	})
}

// AddFee attaches a fee line to the charge. When FeeTypeID is set the fee is
// instantiated from the catalog entry, with the request rate and quantity
// overriding the defaults where provided.
func (s *ChargeService) AddFee(ctx context.Context, chargeID uuid.UUID, req AddFeeRequest) (*billing.RoomCharge, error) {
	var fee billing.FeeInstance
	var err error

	if req.FeeTypeID != nil {
		feeType, findErr := s.feeRepo.FindByID(ctx, *req.FeeTypeID)
		if findErr != nil {
			return nil, findErr
		}
		fee, err = feeType.NewInstance(req.Rate, req.Quantity)
	} else {
		rate := decimal.Zero
		if req.Rate != nil {
			rate = *req.Rate
		}
		quantity := decimal.Zero
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		fee, err = billing.NewFeeInstance(req.Name, rate, quantity)
	}
	if err != nil {
		return nil, err
	}
	if req.FeeTypeID == nil && req.UnitLabel != "" {
		fee.UnitLabel = req.UnitLabel
	}

	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.AddFee(fee)
	})
}

// RemoveFee detaches a fee line from the charge
func (s *ChargeService) RemoveFee(ctx context.Context, chargeID, feeID uuid.UUID) (*billing.RoomCharge, error) {
	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.RemoveFee(feeID)
	})
}

// MarkSent records that the invoice for the charge went out for the first time
func (s *ChargeService) MarkSent(ctx context.Context, chargeID uuid.UUID) (*billing.RoomCharge, error) {
	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.MarkSent(time.Now())
	})
}

// MarkReminderSent records a follow-up reminder without changing status
func (s *ChargeService) MarkReminderSent(ctx context.Context, chargeID uuid.UUID) (*billing.RoomCharge, error) {
	return s.mutate(ctx, chargeID, func(charge *billing.RoomCharge) error {
		return charge.MarkReminderSent(time.Now())
	})
}

// mutate loads the charge, rejects the call if its cycle is closed, applies
// the mutation and saves under the optimistic lock.
func (s *ChargeService) mutate(ctx context.Context, chargeID uuid.UUID, fn func(*billing.RoomCharge) error) (*billing.RoomCharge, error) {
	charge, err := s.chargeRepo.FindByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	cycle, err := s.cycleRepo.FindByID(ctx, charge.CycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Closed {
		return nil, shared.ErrCycleClosed
	}

	if err := fn(charge); err != nil {
		return nil, err
	}
	if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
		return nil, err
	}
	return charge, nil
}
