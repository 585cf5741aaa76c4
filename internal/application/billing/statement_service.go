package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MeterLine is one utility line on a statement
type MeterLine struct {
	Kind        billing.MeterKind `json:"kind"`
	Previous    int64             `json:"previous"`
	Current     *int64            `json:"current,omitempty"`
	Consumption int64             `json:"consumption"`
	Rate        decimal.Decimal   `json:"rate"`
	Amount      decimal.Decimal   `json:"amount"`
}

// FeeLine is one fee line on a statement
type FeeLine struct {
	Name      string          `json:"name"`
	UnitLabel string          `json:"unit_label,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// Statement is the read-only invoice projection of one room charge. It is
// what the invoice renderer and messaging workflow consume.
type Statement struct {
	ChargeID        uuid.UUID            `json:"charge_id"`
	CycleLabel      string               `json:"cycle_label"`
	RoomCode        string               `json:"room_code"`
	BaseRent        decimal.Decimal      `json:"base_rent"`
	Electric        MeterLine            `json:"electric"`
	Water           MeterLine            `json:"water"`
	Fees            []FeeLine            `json:"fees"`
	TotalDue        decimal.Decimal      `json:"total_due"`
	AmountPaid      decimal.Decimal      `json:"amount_paid"`
	AmountRemaining decimal.Decimal      `json:"amount_remaining"`
	Status          billing.ChargeStatus `json:"status"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	IsLate          bool                 `json:"is_late"`
	DaysLate        int                  `json:"days_late"`
}

// LateCharge is one overdue entry in the reminder worklist
type LateCharge struct {
	ChargeID        uuid.UUID       `json:"charge_id"`
	RoomCode        string          `json:"room_code"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	DueDate         time.Time       `json:"due_date"`
	DaysLate        int             `json:"days_late"`
	LastReminderAt  *time.Time      `json:"last_reminder_at,omitempty"`
}

// CycleSummary aggregates one cycle for the dashboard
type CycleSummary struct {
	CycleID     uuid.UUID       `json:"cycle_id"`
	Label       string          `json:"label"`
	Closed      bool            `json:"closed"`
	ChargeCount int64           `json:"charge_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// StatementService builds read-only projections: per-room statements for the
// invoice renderer, the overdue worklist for the reminder sender and cycle
// summaries for the dashboard.
type StatementService struct {
	cycleRepo  billing.PaymentCycleRepository
	chargeRepo billing.RoomChargeRepository
	logger     *zap.Logger
}

// NewStatementService creates a new StatementService
func NewStatementService(
	cycleRepo billing.PaymentCycleRepository,
	chargeRepo billing.RoomChargeRepository,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		cycleRepo:  cycleRepo,
		chargeRepo: chargeRepo,
		logger:     logger,
	}
}

// Statement builds the invoice projection for one charge
func (s *StatementService) Statement(ctx context.Context, chargeID uuid.UUID) (*Statement, error) {
	charge, err := s.chargeRepo.FindByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	cycle, err := s.cycleRepo.FindByID(ctx, charge.CycleID)
	if err != nil {
		return nil, err
	}
	return buildStatement(cycle, charge, time.Now()), nil
}

// CycleStatements builds the invoice projections for every charge in a cycle
func (s *StatementService) CycleStatements(ctx context.Context, cycleID uuid.UUID) ([]Statement, error) {
	cycle, err := s.cycleRepo.FindByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	charges, err := s.chargeRepo.FindByCycle(ctx, cycleID, billing.ChargeFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	statements := make([]Statement, 0, len(charges))
	for i := range charges {
		statements = append(statements, *buildStatement(cycle, &charges[i], now))
	}
	return statements, nil
}

// ListLate returns the overdue worklist: charges past due with money owing,
// sorted by due date by the repository.
func (s *StatementService) ListLate(ctx context.Context) ([]LateCharge, error) {
	now := time.Now()
	charges, err := s.chargeRepo.FindUnpaidDueBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	late := make([]LateCharge, 0, len(charges))
	for i := range charges {
		charge := &charges[i]
		if !charge.IsLate(now) || charge.DueDate == nil {
			continue
		}
		late = append(late, LateCharge{
			ChargeID:        charge.ID,
			RoomCode:        charge.RoomCode,
			AmountRemaining: charge.AmountRemaining(),
			DueDate:         *charge.DueDate,
			DaysLate:        charge.DaysLate(now),
			LastReminderAt:  charge.LastReminderSentAt,
		})
	}
	return late, nil
}

// Summaries builds the per-cycle dashboard rows
func (s *StatementService) Summaries(ctx context.Context, filter billing.CycleFilter) ([]CycleSummary, error) {
	cycles, err := s.cycleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]CycleSummary, 0, len(cycles))
	for i := range cycles {
		cycle := &cycles[i]
		count, err := s.chargeRepo.CountByCycle(ctx, cycle.ID)
		if err != nil {
			return nil, err
		}
		outstanding, err := s.chargeRepo.SumOutstandingByCycle(ctx, cycle.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, CycleSummary{
			CycleID:     cycle.ID,
			Label:       cycle.Label(),
			Closed:      cycle.Closed,
			ChargeCount: count,
			Outstanding: outstanding,
		})
	}
	return summaries, nil
}

func buildStatement(cycle *billing.PaymentCycle, charge *billing.RoomCharge, now time.Time) *Statement {
	fees := make([]FeeLine, 0, len(charge.Fees))
	for _, fee := range charge.Fees {
		fees = append(fees, FeeLine{
			Name:      fee.Name,
			UnitLabel: fee.UnitLabel,
			Rate:      fee.Rate,
			Quantity:  fee.Quantity,
			Amount:    fee.Amount(),
		})
	}

	return &Statement{
		ChargeID:        charge.ID,
		CycleLabel:      cycle.Label(),
		RoomCode:        charge.RoomCode,
		BaseRent:        charge.BaseRent,
		Electric:        meterLine(billing.MeterKindElectric, charge.Electric),
		Water:           meterLine(billing.MeterKindWater, charge.Water),
		Fees:            fees,
		TotalDue:        charge.TotalDue(),
		AmountPaid:      charge.AmountPaid,
		AmountRemaining: charge.AmountRemaining(),
		Status:          charge.Status,
		DueDate:         charge.DueDate,
		IsLate:          charge.IsLate(now),
		DaysLate:        charge.DaysLate(now),
	}
}

func meterLine(kind billing.MeterKind, reading billing.MeterReading) MeterLine {
	return MeterLine{
		Kind:        kind,
		Previous:    reading.Previous,
		Current:     reading.Current,
		Consumption: reading.Consumption(),
		Rate:        reading.Rate,
		Amount:      reading.Amount(),
	}
}
