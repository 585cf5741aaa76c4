package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CycleFilter defines filtering options for payment cycle queries
type CycleFilter struct {
	shared.Filter
	Year   *int
	Closed *bool
}

// ChargeFilter defines filtering options for room charge queries
type ChargeFilter struct {
	shared.Filter
	RoomCode *string
	Status   *ChargeStatus
}

// PaymentCycleRepository defines the persistence contract for payment cycles
type PaymentCycleRepository interface {
	// FindByID finds a cycle by ID; charges are not loaded
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentCycle, error)

	// FindByYearMonth finds the cycle for a calendar month; charges are not loaded
	FindByYearMonth(ctx context.Context, year, month int) (*PaymentCycle, error)

	// FindAll finds cycles with filtering, newest first
	FindAll(ctx context.Context, filter CycleFilter) ([]PaymentCycle, error)

	// FindAllIDs returns the IDs of every cycle, optionally restricted to open ones
	FindAllIDs(ctx context.Context, openOnly bool) ([]uuid.UUID, error)

	// Save creates or updates a cycle
	Save(ctx context.Context, cycle *PaymentCycle) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, cycle *PaymentCycle) error

	// Count counts cycles matching the filter
	Count(ctx context.Context, filter CycleFilter) (int64, error)
}

// RoomChargeRepository defines the persistence contract for room charges
type RoomChargeRepository interface {
	// FindByID finds a charge by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RoomCharge, error)

	// FindByCycle finds the charges of one cycle, ordered by room code
	FindByCycle(ctx context.Context, cycleID uuid.UUID, filter ChargeFilter) ([]RoomCharge, error)

	// FindByCycleAndRoomCode finds one room's charge within a cycle
	FindByCycleAndRoomCode(ctx context.Context, cycleID uuid.UUID, roomCode string) (*RoomCharge, error)

	// FindUnpaidDueBefore finds charges with money owing whose due date is
	// before the cutoff, across all open cycles
	FindUnpaidDueBefore(ctx context.Context, cutoff time.Time) ([]RoomCharge, error)

	// Save creates or updates a charge
	Save(ctx context.Context, charge *RoomCharge) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, charge *RoomCharge) error

	// CountByCycle counts the charges in a cycle
	CountByCycle(ctx context.Context, cycleID uuid.UUID) (int64, error)

	// SumOutstandingByCycle sums the unpaid balance across a cycle
	SumOutstandingByCycle(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error)
}

// FeeTypeRepository defines the persistence contract for the fee catalog
type FeeTypeRepository interface {
	// FindByID finds a fee type by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeType, error)

	// FindByName finds a fee type by its unique name
	FindByName(ctx context.Context, name string) (*FeeType, error)

	// FindAll finds fee types with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]FeeType, error)

	// FindActive finds all active fee types
	FindActive(ctx context.Context) ([]FeeType, error)

	// Save creates or updates a fee type
	Save(ctx context.Context, feeType *FeeType) error

	// Delete removes a fee type from the catalog
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts fee types matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
