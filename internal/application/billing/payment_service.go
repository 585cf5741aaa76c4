package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxPaymentRetries bounds the reload-and-retry loop around optimistic lock
// conflicts when two payments hit the same charge at once.
const maxPaymentRetries = 3

// RecordPaymentRequest carries the input for a payment entry
type RecordPaymentRequest struct {
	Amount    decimal.Decimal
	PaidAt    *time.Time
	Note      string
	IsPartial bool
}

// OverridePaymentRequest carries the input for an administrative correction
type OverridePaymentRequest struct {
	AmountPaid decimal.Decimal
	Reason     string
}

// PaymentService records payments against room charges and applies
// administrative corrections.
type PaymentService struct {
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	logger     *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		logger:     logger,
	}
}

// RecordPayment appends a payment to the charge and persists it under the
// optimistic lock. On a version conflict the charge is reloaded and the
// payment re-applied, so concurrent payments both land.
func (s *PaymentService) RecordPayment(ctx context.Context, chargeID uuid.UUID, req RecordPaymentRequest) (*billing.RoomCharge, error) {
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	var charge *billing.RoomCharge
	err := s.withRetry(ctx, chargeID, func(c *billing.RoomCharge) error {
		charge = c
		return c.RecordPayment(valueobject.NewMoneyVND(req.Amount), paidAt, req.Note, req.IsPartial)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("charge_id", chargeID.String()),
		zap.String("room_code", charge.RoomCode),
		zap.String("amount", req.Amount.String()),
		zap.String("status", string(charge.Status)))

	return charge, nil
}

// OverridePayment replaces the accumulated paid amount with a corrected
// value. The reason is mandatory and stored on the charge.
func (s *PaymentService) OverridePayment(ctx context.Context, chargeID uuid.UUID, req OverridePaymentRequest) (*billing.RoomCharge, error) {
	var charge *billing.RoomCharge
	err := s.withRetry(ctx, chargeID, func(c *billing.RoomCharge) error {
		charge = c
		return c.OverridePayment(req.AmountPaid, req.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Payment overridden",
		zap.String("charge_id", chargeID.String()),
		zap.String("room_code", charge.RoomCode),
		zap.String("amount_paid", req.AmountPaid.String()),
		zap.String("reason", req.Reason))

	return charge, nil
}

// withRetry loads the charge, verifies its cycle is still open, applies the
// mutation and saves with the version check. ErrConcurrencyConflict triggers
// a fresh reload; any other error aborts.
func (s *PaymentService) withRetry(ctx context.Context, chargeID uuid.UUID, mutate func(*billing.RoomCharge) error) error {
	var lastErr error
	for attempt := 0; attempt < maxPaymentRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		charge, err := s.chargeRepo.FindByID(ctx, chargeID)
		if err != nil {
			return err
		}
		if err := s.ensureCycleOpen(ctx, charge.CycleID); err != nil {
			return err
		}

		if err := mutate(charge); err != nil {
			return err
		}
		if err := s.chargeRepo.SaveWithLock(ctx, charge); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

func (s *PaymentService) ensureCycleOpen(ctx context.Context, cycleID uuid.UUID) error {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle.Closed {
		return shared.ErrCycleClosed
	}
	return nil
}
