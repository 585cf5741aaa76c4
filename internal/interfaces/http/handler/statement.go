package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/interfaces/http/dto"
)

// StatementHandler handles read-only billing projections: statements, the
// overdue worklist and cycle summaries
type StatementHandler struct {
	BaseHandler
	statementService *billingapp.StatementService
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(statementService *billingapp.StatementService) *StatementHandler {
	return &StatementHandler{statementService: statementService}
}

// ChargeStatement returns the invoice projection for one charge
func (h *StatementHandler) ChargeStatement(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	statement, err := h.statementService.Statement(c.Request.Context(), chargeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statement)
}

// CycleStatements returns invoice projections for all charges of one cycle
func (h *StatementHandler) CycleStatements(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	statements, err := h.statementService.CycleStatements(c.Request.Context(), cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statements)
}

// ListLate returns the overdue charges needing a reminder
func (h *StatementHandler) ListLate(c *gin.Context) {
	late, err := h.statementService.ListLate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, late)
}

// Summaries returns per-cycle aggregates for the dashboard
func (h *StatementHandler) Summaries(c *gin.Context) {
	req := ListCyclesRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := billing.CycleFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
		},
		Year:   req.Year,
		Closed: req.Closed,
	}

	summaries, err := h.statementService.Summaries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}
