package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/interfaces/http/dto"
)

// CycleHandler handles payment cycle API endpoints
type CycleHandler struct {
	BaseHandler
	cycleService    *billingapp.CycleService
	rolloverService *billingapp.RolloverService
}

// NewCycleHandler creates a new CycleHandler
func NewCycleHandler(cycleService *billingapp.CycleService, rolloverService *billingapp.RolloverService) *CycleHandler {
	return &CycleHandler{
		cycleService:    cycleService,
		rolloverService: rolloverService,
	}
}

// OpenCycleRequest represents a request to open (or fetch) a billing month
type OpenCycleRequest struct {
	Year  int `json:"year" binding:"required,min=2000,max=2200"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// RollForwardRequest represents a request to roll meter readings into the charges
type RollForwardRequest struct {
	Force bool `json:"force"`
}

// ListCyclesRequest represents cycle list query parameters
type ListCyclesRequest struct {
	dto.ListRequest
	Year   *int  `form:"year" binding:"omitempty,min=2000,max=2200"`
	Closed *bool `form:"closed"`
}

// GetOrCreate opens the cycle for a calendar month, seeding charges for every
// occupied room on first open. Opening an existing month returns it as-is.
func (h *CycleHandler) GetOrCreate(c *gin.Context) {
	var req OpenCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	cycle, err := h.cycleService.GetOrCreate(c.Request.Context(), req.Year, req.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCycleResponse(cycle))
}

// Get returns one cycle with all of its charges
func (h *CycleHandler) Get(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	cycle, err := h.cycleService.Get(c.Request.Context(), cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCycleResponse(cycle))
}

// List returns cycles, newest first
func (h *CycleHandler) List(c *gin.Context) {
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

	cycles, total, err := h.cycleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CycleResponse, 0, len(cycles))
	for i := range cycles {
		responses = append(responses, toCycleResponse(&cycles[i]))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Reseed adds charges for rooms that became occupied after the cycle was
// opened. Existing charges are left untouched.
func (h *CycleHandler) Reseed(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	cycle, err := h.cycleService.Reseed(c.Request.Context(), cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCycleResponse(cycle))
}

// Close closes the cycle and its settled charges. A closed cycle rejects all
// further mutation.
func (h *CycleHandler) Close(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	cycle, err := h.cycleService.Close(c.Request.Context(), cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCycleResponse(cycle))
}

// RollForward copies each charge's current meter readings into the previous
// slot, preparing the rooms for next month's readings
func (h *CycleHandler) RollForward(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	var req RollForwardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	cycle, err := h.rolloverService.RollForward(c.Request.Context(), cycleID, req.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCycleResponse(cycle))
}
