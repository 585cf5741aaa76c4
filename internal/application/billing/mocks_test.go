package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/leasing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockPaymentCycleRepository is a mock implementation of billing.PaymentCycleRepository
type MockPaymentCycleRepository struct {
	mock.Mock
}

func (m *MockPaymentCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentCycle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleRepository) FindByYearMonth(ctx context.Context, year, month int) (*billing.PaymentCycle, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleRepository) FindAll(ctx context.Context, filter billing.CycleFilter) ([]billing.PaymentCycle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleRepository) FindAllIDs(ctx context.Context, openOnly bool) ([]uuid.UUID, error) {
	args := m.Called(ctx, openOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPaymentCycleRepository) Save(ctx context.Context, cycle *billing.PaymentCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockPaymentCycleRepository) SaveWithLock(ctx context.Context, cycle *billing.PaymentCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockPaymentCycleRepository) Count(ctx context.Context, filter billing.CycleFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockRoomChargeRepository is a mock implementation of billing.RoomChargeRepository
type MockRoomChargeRepository struct {
	mock.Mock
}

func (m *MockRoomChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.RoomCharge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RoomCharge), args.Error(1)
}

func (m *MockRoomChargeRepository) FindByCycle(ctx context.Context, cycleID uuid.UUID, filter billing.ChargeFilter) ([]billing.RoomCharge, error) {
	args := m.Called(ctx, cycleID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.RoomCharge), args.Error(1)
}

func (m *MockRoomChargeRepository) FindByCycleAndRoomCode(ctx context.Context, cycleID uuid.UUID, roomCode string) (*billing.RoomCharge, error) {
	args := m.Called(ctx, cycleID, roomCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RoomCharge), args.Error(1)
}

func (m *MockRoomChargeRepository) FindUnpaidDueBefore(ctx context.Context, cutoff time.Time) ([]billing.RoomCharge, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.RoomCharge), args.Error(1)
}

func (m *MockRoomChargeRepository) Save(ctx context.Context, charge *billing.RoomCharge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *MockRoomChargeRepository) SaveWithLock(ctx context.Context, charge *billing.RoomCharge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *MockRoomChargeRepository) CountByCycle(ctx context.Context, cycleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, cycleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomChargeRepository) SumOutstandingByCycle(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, cycleID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockFeeTypeRepository is a mock implementation of billing.FeeTypeRepository
type MockFeeTypeRepository struct {
	mock.Mock
}

func (m *MockFeeTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FeeType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindByName(ctx context.Context, name string) (*billing.FeeType, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.FeeType, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) FindActive(ctx context.Context) ([]billing.FeeType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.FeeType), args.Error(1)
}

func (m *MockFeeTypeRepository) Save(ctx context.Context, feeType *billing.FeeType) error {
	args := m.Called(ctx, feeType)
	return args.Error(0)
}

func (m *MockFeeTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeTypeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockAgreementSource is a mock implementation of leasing.AgreementSource
type MockAgreementSource struct {
	mock.Mock
}

func (m *MockAgreementSource) ActiveAgreements(ctx context.Context) ([]leasing.ActiveAgreement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.ActiveAgreement), args.Error(1)
}

// MockOccupancySource is a mock implementation of leasing.OccupancySource
type MockOccupancySource struct {
	mock.Mock
}

func (m *MockOccupancySource) OccupiedRoomCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// =============================================================================
// Test Helper Functions
// =============================================================================

func nowForTest() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func mustVND(amount int64) valueobject.Money {
	return valueobject.NewMoneyVNDFromInt(amount)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func testDefaults() billing.BillingDefaults {
	defaults, _ := billing.NewBillingDefaults(
		decimal.NewFromInt(3500),
		decimal.NewFromInt(15000),
		5,
		valueobject.VND,
	)
	return defaults
}

func createOpenCycle(year, month int) *billing.PaymentCycle {
	cycle, _ := billing.NewPaymentCycle(year, month)
	return cycle
}

func createChargeForCycle(cycle *billing.PaymentCycle, roomCode string, rent int64) *billing.RoomCharge {
	due := testDefaults().DueDateFor(cycle.Year, cycle.Month)
	charge, _ := billing.NewRoomCharge(
		cycle.ID,
		roomCode,
		valueobject.NewMoneyVNDFromInt(rent),
		decimal.NewFromInt(3500),
		decimal.NewFromInt(15000),
		&due,
	)
	return charge
}

func chargeWithUsage(cycle *billing.PaymentCycle, roomCode string, rent int64) *billing.RoomCharge {
	charge := createChargeForCycle(cycle, roomCode, rent)
	electric := int64(120)
	water := int64(8)
	_ = charge.SetMeterReading(billing.MeterKindElectric, billing.MeterUpdate{Current: &electric})
	_ = charge.SetMeterReading(billing.MeterKindWater, billing.MeterUpdate{Current: &water})
	return charge
}
