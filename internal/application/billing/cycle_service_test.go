package billing

import (
	"context"
	"testing"
	"time"

	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/leasing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newCycleService(cycleRepo *MockPaymentCycleRepository, chargeRepo *MockRoomChargeRepository, agreements *MockAgreementSource, occupancy *MockOccupancySource) *CycleService {
	return NewCycleService(cycleRepo, chargeRepo, agreements, occupancy, testDefaults(), zap.NewNop())
}

func TestCycleService_GetOrCreate_ExistingCycle(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycle := createOpenCycle(2026, 3)
	existing := []billing.RoomCharge{*createChargeForCycle(cycle, "P101", 3000000)}

	cycleRepo.On("FindByYearMonth", ctx, 2026, 3).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return(existing, nil)

	result, err := service.GetOrCreate(ctx, 2026, 3)

	assert.NoError(t, err)
	assert.Equal(t, cycle.ID, result.ID)
	assert.Len(t, result.Charges, 1)
	agreements.AssertNotCalled(t, "ActiveAgreements", mock.Anything)
	cycleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCycleService_GetOrCreate_SeedsFromAgreements(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycleRepo.On("FindByYearMonth", ctx, 2026, 3).Return(nil, shared.ErrNotFound)
	cycleRepo.On("Save", ctx, mock.AnythingOfType("*billing.PaymentCycle")).Return(nil)
	chargeRepo.On("FindByCycle", ctx, mock.Anything, billing.ChargeFilter{}).Return([]billing.RoomCharge{}, nil)
	agreements.On("ActiveAgreements", ctx).Return([]leasing.ActiveAgreement{
		{RoomCode: "P101", RentAmount: decimal.NewFromInt(3000000)},
		{RoomCode: "P102", RentAmount: decimal.NewFromInt(3500000)},
	}, nil)
	chargeRepo.On("Save", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	result, err := service.GetOrCreate(ctx, 2026, 3)

	assert.NoError(t, err)
	assert.Len(t, result.Charges, 2)
	assert.True(t, result.HasCharge("P101"))
	assert.True(t, result.HasCharge("P102"))
	for _, charge := range result.Charges {
		assert.Equal(t, billing.ChargeStatusMissingData, charge.Status)
		assert.NotNil(t, charge.DueDate)
		assert.Equal(t, 5, charge.DueDate.Day())
	}
	chargeRepo.AssertNumberOfCalls(t, "Save", 2)
	occupancy.AssertNotCalled(t, "OccupiedRoomCodes", mock.Anything)
}

func TestCycleService_GetOrCreate_OccupancyFallback(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycleRepo.On("FindByYearMonth", ctx, 2026, 3).Return(nil, shared.ErrNotFound)
	cycleRepo.On("Save", ctx, mock.AnythingOfType("*billing.PaymentCycle")).Return(nil)
	chargeRepo.On("FindByCycle", ctx, mock.Anything, billing.ChargeFilter{}).Return([]billing.RoomCharge{}, nil)
	agreements.On("ActiveAgreements", ctx).Return([]leasing.ActiveAgreement{}, nil)
	occupancy.On("OccupiedRoomCodes", ctx).Return([]string{"P201"}, nil)
	chargeRepo.On("Save", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	result, err := service.GetOrCreate(ctx, 2026, 3)

	assert.NoError(t, err)
	assert.Len(t, result.Charges, 1)
	assert.Equal(t, "P201", result.Charges[0].RoomCode)
	assert.True(t, result.Charges[0].BaseRent.IsZero())
}

func TestCycleService_Reseed_SkipsExistingRooms(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycle := createOpenCycle(2026, 3)
	seeded := createChargeForCycle(cycle, "P101", 3000000)
	_ = seeded.RecordPayment(mustVND(1000000), time.Now(), "", true)

	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*seeded}, nil)
	agreements.On("ActiveAgreements", ctx).Return([]leasing.ActiveAgreement{
		{RoomCode: "P101", RentAmount: decimal.NewFromInt(3000000)},
		{RoomCode: "P102", RentAmount: decimal.NewFromInt(2800000)},
	}, nil)
	chargeRepo.On("Save", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	result, err := service.Reseed(ctx, cycle.ID)

	assert.NoError(t, err)
	assert.Len(t, result.Charges, 2)
	// P101 keeps its payment history, only P102 got created
	chargeRepo.AssertNumberOfCalls(t, "Save", 1)
	kept := result.ChargeByRoomCode("P101")
	assert.True(t, kept.AmountPaid.Equal(decimal.NewFromInt(1000000)))
}

func TestCycleService_Reseed_ClosedCycle(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycle := createOpenCycle(2026, 1)
	assert.NoError(t, cycle.Close(time.Now()))
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)

	_, err := service.Reseed(ctx, cycle.ID)

	assert.ErrorIs(t, err, shared.ErrCycleClosed)
	agreements.AssertNotCalled(t, "ActiveAgreements", mock.Anything)
}

func TestCycleService_Close_CascadesToPaidCharges(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycle := createOpenCycle(2026, 2)
	paid := chargeWithUsage(cycle, "P101", 3000000)
	assert.NoError(t, paid.RecordPayment(mustVND(paid.TotalDue().IntPart()), time.Now(), "", false))
	partial := chargeWithUsage(cycle, "P102", 3000000)
	assert.NoError(t, partial.RecordPayment(mustVND(500000), time.Now(), "", true))
	unpaid := chargeWithUsage(cycle, "P103", 3000000)

	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	cycleRepo.On("SaveWithLock", ctx, cycle).Return(nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*paid, *partial, *unpaid}, nil)
	chargeRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	result, err := service.Close(ctx, cycle.ID)

	assert.NoError(t, err)
	assert.True(t, result.Closed)
	assert.Equal(t, billing.ChargeStatusClosed, result.ChargeByRoomCode("P101").Status)
	assert.Equal(t, billing.ChargeStatusClosed, result.ChargeByRoomCode("P102").Status)
	// unpaid charges stay open as the historical record
	assert.Equal(t, billing.ChargeStatusReadyToSend, result.ChargeByRoomCode("P103").Status)
	chargeRepo.AssertNumberOfCalls(t, "SaveWithLock", 2)
}

func TestCycleService_Close_AlreadyClosed(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	agreements := new(MockAgreementSource)
	occupancy := new(MockOccupancySource)
	service := newCycleService(cycleRepo, chargeRepo, agreements, occupancy)

	cycle := createOpenCycle(2026, 1)
	assert.NoError(t, cycle.Close(time.Now()))
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)

	_, err := service.Close(ctx, cycle.ID)

	assert.Error(t, err)
	cycleRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}
