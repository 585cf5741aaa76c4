package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPaymentCycleRepository implements billing.PaymentCycleRepository for testing
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
	return args.Get(0).([]billing.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleRepository) FindAllIDs(ctx context.Context, openOnly bool) ([]uuid.UUID, error) {
	args := m.Called(ctx, openOnly)
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

// MockRoomChargeRepository implements billing.RoomChargeRepository for testing
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

// Test setup helpers

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupPaymentHandler(cycleRepo *MockPaymentCycleRepository, chargeRepo *MockRoomChargeRepository) *PaymentHandler {
	paymentService := billingapp.NewPaymentService(cycleRepo, chargeRepo, zap.NewNop())
	return NewPaymentHandler(paymentService)
}

func createTestCycle() *billing.PaymentCycle {
	cycle, _ := billing.NewPaymentCycle(2026, 3)
	return cycle
}

func createTestCharge(cycle *billing.PaymentCycle) *billing.RoomCharge {
	due := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	charge, _ := billing.NewRoomCharge(
		cycle.ID,
		"A-101",
		valueobject.NewMoneyVNDFromInt(3000000),
		decimal.NewFromInt(3500),
		decimal.NewFromInt(15000),
		&due,
	)
	return charge
}

// Tests

func TestPaymentHandler_Record_Success(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	cycle := createTestCycle()
	charge := createTestCharge(cycle)

	chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	cycleRepo.On("FindByID", mock.Anything, cycle.ID).Return(cycle, nil)
	chargeRepo.On("SaveWithLock", mock.Anything, charge).Return(nil)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	reqBody := RecordPaymentRequest{
		Amount:    "500000",
		Note:      "bank transfer",
		IsPartial: true,
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/charges/"+charge.ID.String()+"/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "500000", data["amount_paid"])

	payments, ok := data["payments"].([]any)
	require.True(t, ok)
	require.Len(t, payments, 1)
	payment := payments[0].(map[string]any)
	assert.Equal(t, "500000", payment["amount"])
	assert.Equal(t, "bank transfer", payment["note"])
	assert.Equal(t, true, payment["is_partial"])

	chargeRepo.AssertExpectations(t)
	cycleRepo.AssertExpectations(t)
}

func TestPaymentHandler_Record_CycleClosed(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	cycle := createTestCycle()
	charge := createTestCharge(cycle)
	require.NoError(t, cycle.Close(time.Now()))

	chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	cycleRepo.On("FindByID", mock.Anything, cycle.ID).Return(cycle, nil)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	body, _ := json.Marshal(RecordPaymentRequest{Amount: "500000"})

	req := httptest.NewRequest(http.MethodPost, "/charges/"+charge.ID.String()+"/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "ERR_CYCLE_CLOSED", resp.Error.Code)
	chargeRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPaymentHandler_Record_ChargeNotFound(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	chargeID := uuid.New()
	chargeRepo.On("FindByID", mock.Anything, chargeID).Return(nil, shared.ErrNotFound)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	body, _ := json.Marshal(RecordPaymentRequest{Amount: "500000"})

	req := httptest.NewRequest(http.MethodPost, "/charges/"+chargeID.String()+"/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_Record_InvalidChargeID(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	body, _ := json.Marshal(RecordPaymentRequest{Amount: "500000"})

	req := httptest.NewRequest(http.MethodPost, "/charges/not-a-uuid/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Record_InvalidAmount(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	body, _ := json.Marshal(RecordPaymentRequest{Amount: "five hundred"})

	req := httptest.NewRequest(http.MethodPost, "/charges/"+uuid.NewString()+"/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Record_MissingAmount(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	req := httptest.NewRequest(http.MethodPost, "/charges/"+uuid.NewString()+"/payments", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "Amount", resp.Error.Details[0].Field)
}

func TestPaymentHandler_Record_RetriesOnVersionConflict(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	cycle := createTestCycle()
	charge := createTestCharge(cycle)

	chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	cycleRepo.On("FindByID", mock.Anything, cycle.ID).Return(cycle, nil)
	chargeRepo.On("SaveWithLock", mock.Anything, charge).Return(shared.ErrConcurrencyConflict).Once()
	chargeRepo.On("SaveWithLock", mock.Anything, charge).Return(nil).Once()

	router := setupTestRouter()
	router.POST("/charges/:id/payments", handler.Record)

	body, _ := json.Marshal(RecordPaymentRequest{Amount: "500000", IsPartial: true})

	req := httptest.NewRequest(http.MethodPost, "/charges/"+charge.ID.String()+"/payments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	chargeRepo.AssertNumberOfCalls(t, "SaveWithLock", 2)
}

func TestPaymentHandler_Override_Success(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	cycle := createTestCycle()
	charge := createTestCharge(cycle)

	chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	cycleRepo.On("FindByID", mock.Anything, cycle.ID).Return(cycle, nil)
	chargeRepo.On("SaveWithLock", mock.Anything, charge).Return(nil)

	router := setupTestRouter()
	router.PUT("/charges/:id/payments/override", handler.Override)

	body, _ := json.Marshal(OverridePaymentRequest{
		AmountPaid: "3000000",
		Reason:     "cash payment recorded on paper",
	})

	req := httptest.NewRequest(http.MethodPut, "/charges/"+charge.ID.String()+"/payments/override", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "3000000", data["amount_paid"])
	assert.Equal(t, "cash payment recorded on paper", data["override_reason"])
	assert.NotEmpty(t, data["overridden_at"])

	chargeRepo.AssertExpectations(t)
}

func TestPaymentHandler_Override_MissingReason(t *testing.T) {
	cycleRepo := new(MockPaymentCycleRepository)
	chargeRepo := new(MockRoomChargeRepository)
	handler := setupPaymentHandler(cycleRepo, chargeRepo)

	router := setupTestRouter()
	router.PUT("/charges/:id/payments/override", handler.Override)

	body, _ := json.Marshal(OverridePaymentRequest{AmountPaid: "3000000"})

	req := httptest.NewRequest(http.MethodPut, "/charges/"+uuid.NewString()+"/payments/override", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
