package billing

import (
	"context"
	"testing"
	"time"

	"github.com/rently/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestStatementService_Statement(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := NewStatementService(cycleRepo, chargeRepo, zap.NewNop())

	cycle := createOpenCycle(2026, 3)
	charge := chargeWithUsage(cycle, "P101", 3000000)
	fee, err := billing.NewFeeInstance("Trash", decimal.NewFromInt(20000), decimal.NewFromInt(1))
	assert.NoError(t, err)
	assert.NoError(t, charge.AddFee(fee))

	chargeRepo.On("FindByID", ctx, charge.ID).Return(charge, nil)
	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)

	statement, err := service.Statement(ctx, charge.ID)

	assert.NoError(t, err)
	assert.Equal(t, "2026-03", statement.CycleLabel)
	assert.Equal(t, "P101", statement.RoomCode)
	assert.True(t, statement.BaseRent.Equal(decimal.NewFromInt(3000000)))
	// electric 120 * 3500, water 8 * 15000
	assert.True(t, statement.Electric.Amount.Equal(decimal.NewFromInt(420000)))
	assert.Equal(t, int64(120), statement.Electric.Consumption)
	assert.True(t, statement.Water.Amount.Equal(decimal.NewFromInt(120000)))
	assert.Len(t, statement.Fees, 1)
	assert.True(t, statement.TotalDue.Equal(decimal.NewFromInt(3560000)))
	assert.True(t, statement.AmountRemaining.Equal(statement.TotalDue))
}

func TestStatementService_CycleStatements(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := NewStatementService(cycleRepo, chargeRepo, zap.NewNop())

	cycle := createOpenCycle(2026, 3)
	charges := []billing.RoomCharge{
		*chargeWithUsage(cycle, "P101", 3000000),
		*chargeWithUsage(cycle, "P102", 2800000),
	}

	cycleRepo.On("FindByID", ctx, cycle.ID).Return(cycle, nil)
	chargeRepo.On("FindByCycle", ctx, cycle.ID, billing.ChargeFilter{}).Return(charges, nil)

	statements, err := service.CycleStatements(ctx, cycle.ID)

	assert.NoError(t, err)
	assert.Len(t, statements, 2)
	assert.Equal(t, "P101", statements[0].RoomCode)
	assert.Equal(t, "P102", statements[1].RoomCode)
}

func TestStatementService_ListLate(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := NewStatementService(cycleRepo, chargeRepo, zap.NewNop())

	cycle := createOpenCycle(2026, 1)
	overdue := chargeWithUsage(cycle, "P101", 3000000)
	pastDue := time.Now().AddDate(0, 0, -10)
	overdue.DueDate = &pastDue
	assert.NoError(t, overdue.MarkSent(nowForTest()))

	chargeRepo.On("FindUnpaidDueBefore", ctx, mock.AnythingOfType("time.Time")).Return([]billing.RoomCharge{*overdue}, nil)

	late, err := service.ListLate(ctx)

	assert.NoError(t, err)
	assert.Len(t, late, 1)
	assert.Equal(t, "P101", late[0].RoomCode)
	assert.Equal(t, 10, late[0].DaysLate)
	assert.True(t, late[0].AmountRemaining.Equal(overdue.TotalDue()))
}

func TestStatementService_ListLate_PaidChargesExcluded(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := NewStatementService(cycleRepo, chargeRepo, zap.NewNop())

	cycle := createOpenCycle(2026, 1)
	paid := chargeWithUsage(cycle, "P101", 3000000)
	pastDue := time.Now().AddDate(0, 0, -5)
	paid.DueDate = &pastDue
	assert.NoError(t, paid.RecordPayment(mustVND(paid.TotalDue().IntPart()), nowForTest(), "", false))

	chargeRepo.On("FindUnpaidDueBefore", ctx, mock.AnythingOfType("time.Time")).Return([]billing.RoomCharge{*paid}, nil)

	late, err := service.ListLate(ctx)

	assert.NoError(t, err)
	assert.Len(t, late, 0)
}

func TestStatementService_Summaries(t *testing.T) {
	ctx := context.Background()
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	service := NewStatementService(cycleRepo, chargeRepo, zap.NewNop())

	cycle := createOpenCycle(2026, 3)
	filter := billing.CycleFilter{}

	cycleRepo.On("FindAll", ctx, filter).Return([]billing.PaymentCycle{*cycle}, nil)
	chargeRepo.On("CountByCycle", ctx, cycle.ID).Return(int64(8), nil)
	chargeRepo.On("SumOutstandingByCycle", ctx, cycle.ID).Return(decimal.NewFromInt(12400000), nil)

	summaries, err := service.Summaries(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, "2026-03", summaries[0].Label)
	assert.Equal(t, int64(8), summaries[0].ChargeCount)
	assert.True(t, summaries[0].Outstanding.Equal(decimal.NewFromInt(12400000)))
}
