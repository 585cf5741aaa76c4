package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newFeeService(feeRepo *MockFeeTypeRepository, cycleRepo *MockPaymentCycleRepository, chargeRepo *MockRoomChargeRepository) *FeeService {
	return NewFeeService(feeRepo, cycleRepo, chargeRepo, zap.NewNop())
}

func createTestFeeType(name string, rate int64) *billing.FeeType {
	feeType, _ := billing.NewFeeType(name, "month", decimal.NewFromInt(rate), true, true)
	return feeType
}

func TestFeeService_CreateFeeType_Success(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeRepo.On("FindByName", ctx, "Trash").Return(nil, shared.ErrNotFound)
	feeRepo.On("Save", ctx, mock.AnythingOfType("*billing.FeeType")).Return(nil)

	feeType, err := service.CreateFeeType(ctx, FeeTypeRequest{
		Name:          "Trash",
		UnitLabel:     "month",
		DefaultRate:   decimal.NewFromInt(20000),
		IsRecurring:   true,
		ApplyAllRooms: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Trash", feeType.Name)
	assert.True(t, feeType.Active)
}

func TestFeeService_CreateFeeType_DuplicateName(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	existing := createTestFeeType("Trash", 20000)
	feeRepo.On("FindByName", ctx, "Trash").Return(existing, nil)

	_, err := service.CreateFeeType(ctx, FeeTypeRequest{
		Name:        "Trash",
		DefaultRate: decimal.NewFromInt(25000),
	})

	assert.Error(t, err)
	feeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFeeService_ApplyToCycle_SkipsChargesAlreadyCarryingFee(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	cycle := createOpenCycle(2026, 3)

	carrying := createChargeForCycle(cycle, "P101", 3000000)
	stamped, err := feeType.NewInstance(nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, carrying.AddFee(stamped))
	bare := createChargeForCycle(cycle, "P102", 3000000)

	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*carrying, *bare}, nil)
	chargeRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	applied, err := service.ApplyToCycle(ctx, feeType.ID, cycle.ID, ApplyFeeRequest{})

	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
	chargeRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestFeeService_ApplyToCycle_RateAndQuantityOverrides(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	cycle := createOpenCycle(2026, 3)
	charge := createChargeForCycle(cycle, "P101", 3000000)

	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*charge}, nil)

	var saved *billing.RoomCharge
	chargeRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.RoomCharge")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.RoomCharge)
	}).Return(nil)

	applied, err := service.ApplyToCycle(ctx, feeType.ID, cycle.ID, ApplyFeeRequest{
		Rate:     decimalPtr(decimal.NewFromInt(35000)),
		Quantity: decimalPtr(decimal.NewFromInt(2)),
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Len(t, saved.Fees, 1)
	assert.True(t, saved.Fees[0].Rate.Equal(decimal.NewFromInt(35000)))
	assert.True(t, saved.Fees[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, saved.Fees[0].Amount().Equal(decimal.NewFromInt(70000)))
}

func TestFeeService_ApplyToCycle_ClosedCycle(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	cycle := createOpenCycle(2026, 1)
	assert.NoError(t, cycle.Close(nowForTest()))

	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)

	_, err := service.ApplyToCycle(ctx, feeType.ID, cycle.ID, ApplyFeeRequest{})

	assert.ErrorIs(t, err, shared.ErrCycleClosed)
	chargeRepo.AssertNotCalled(t, "FindByCycle", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeeService_ApplyToOpenCycles(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Internet", 100000)
	first := createOpenCycle(2026, 2)
	second := createOpenCycle(2026, 3)

	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	cycleRepo.On("FindAllIDs", ctx, true).Return([]uuid.UUID{first.ID, second.ID}, nil)
	cycleRepo.On("FindByID", ctx, first.ID).Return(first, nil)
	cycleRepo.On("FindByID", ctx, second.ID).Return(second, nil)
	chargeRepo.On("FindByCycle", ctx, first.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*createChargeForCycle(first, "P101", 3000000)}, nil)
	chargeRepo.On("FindByCycle", ctx, second.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*createChargeForCycle(second, "P101", 3000000)}, nil)
	chargeRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	applied, err := service.ApplyToOpenCycles(ctx, feeType.ID, ApplyFeeRequest{})

	assert.NoError(t, err)
	assert.Equal(t, 2, applied)
}

func TestFeeService_RemoveFromCycle_OnlyStampedInstances(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	cycle := createOpenCycle(2026, 3)

	charge := createChargeForCycle(cycle, "P101", 3000000)
	stamped, err := feeType.NewInstance(nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, charge.AddFee(stamped))
	manual, err := billing.NewFeeInstance("Trash", decimal.NewFromInt(15000), decimal.NewFromInt(1))
	assert.NoError(t, err)
	assert.NoError(t, charge.AddFee(manual))

	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return([]billing.RoomCharge{*charge}, nil)
	chargeRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*billing.RoomCharge")).Return(nil)

	removed, err := service.RemoveFromCycle(ctx, feeType.ID, cycle.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFeeService_UpdateFeeType_LeavesInstancesAlone(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	stamped, err := feeType.NewInstance(nil, nil)
	assert.NoError(t, err)

	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	feeRepo.On("FindByName", ctx, "Garbage").Return(nil, shared.ErrNotFound)
	feeRepo.On("Save", ctx, feeType).Return(nil)

	updated, err := service.UpdateFeeType(ctx, feeType.ID, FeeTypeRequest{
		Name:        "Garbage",
		UnitLabel:   "month",
		DefaultRate: decimal.NewFromInt(30000),
	})

	assert.NoError(t, err)
	assert.Equal(t, "Garbage", updated.Name)
	// the instance stamped before the edit keeps its original name and rate
	assert.Equal(t, "Trash", stamped.Name)
	assert.True(t, stamped.Rate.Equal(decimal.NewFromInt(20000)))
}

func TestFeeService_ListActiveFeeTypes(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	active := createTestFeeType("Trash", 20000)
	feeRepo.On("FindActive", ctx).Return([]billing.FeeType{*active}, nil)

	feeTypes, err := service.ListActiveFeeTypes(ctx)

	assert.NoError(t, err)
	assert.Len(t, feeTypes, 1)
	assert.Equal(t, "Trash", feeTypes[0].Name)
}

func TestFeeService_DeleteFeeType(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	feeRepo.On("Delete", ctx, feeType.ID).Return(nil)

	assert.NoError(t, service.DeleteFeeType(ctx, feeType.ID))
	feeRepo.AssertCalled(t, "Delete", ctx, feeType.ID)
}

func TestFeeService_DeleteFeeType_NotFound(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	missing := uuid.New()
	feeRepo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	err := service.DeleteFeeType(ctx, missing)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	feeRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestFeeService_DeactivateFeeType(t *testing.T) {
	ctx := context.Background()
	feeRepo := new(MockFeeTypeRepository)
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := newFeeService(feeRepo, cycleRepo, chargeRepo)

	feeType := createTestFeeType("Trash", 20000)
	feeRepo.On("FindByID", ctx, feeType.ID).Return(feeType, nil)
	feeRepo.On("Save", ctx, feeType).Return(nil)

	result, err := service.DeactivateFeeType(ctx, feeType.ID)

	assert.NoError(t, err)
	assert.False(t, result.Active)
}
