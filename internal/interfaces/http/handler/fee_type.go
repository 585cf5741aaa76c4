package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/shared"
	"github.com/rently/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// FeeTypeHandler handles fee catalog API endpoints
type FeeTypeHandler struct {
	BaseHandler
	feeService *billingapp.FeeService
}

// NewFeeTypeHandler creates a new FeeTypeHandler
func NewFeeTypeHandler(feeService *billingapp.FeeService) *FeeTypeHandler {
	return &FeeTypeHandler{feeService: feeService}
}

// FeeTypeRequest represents a request to create or update a fee catalog entry
type FeeTypeRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	UnitLabel     string `json:"unit_label" binding:"max=50"`
	DefaultRate   string `json:"default_rate" binding:"required"`
	IsRecurring   bool   `json:"is_recurring"`
	ApplyAllRooms bool   `json:"apply_all_rooms"`
}

// toAppRequest converts the HTTP request to the application request
func (r FeeTypeRequest) toAppRequest() (billingapp.FeeTypeRequest, error) {
	rate, err := decimal.NewFromString(r.DefaultRate)
	if err != nil {
		return billingapp.FeeTypeRequest{}, err
	}
	return billingapp.FeeTypeRequest{
		Name:          r.Name,
		UnitLabel:     r.UnitLabel,
		DefaultRate:   rate,
		IsRecurring:   r.IsRecurring,
		ApplyAllRooms: r.ApplyAllRooms,
	}, nil
}

// ApplyFeeRequest represents the optional overrides for bulk application.
// The body may be omitted entirely, in which case the template defaults apply.
type ApplyFeeRequest struct {
	Rate     *string `json:"rate"`
	Quantity *string `json:"quantity"`
}

// toAppRequest converts the HTTP overrides to the application request
func (r ApplyFeeRequest) toAppRequest() (billingapp.ApplyFeeRequest, error) {
	rate, err := parseOptionalDecimal(r.Rate)
	if err != nil {
		return billingapp.ApplyFeeRequest{}, err
	}
	quantity, err := parseOptionalDecimal(r.Quantity)
	if err != nil {
		return billingapp.ApplyFeeRequest{}, err
	}
	return billingapp.ApplyFeeRequest{Rate: rate, Quantity: quantity}, nil
}

// bindApplyFeeRequest reads the optional overrides body. An empty body is
// valid and means no overrides.
func (h *FeeTypeHandler) bindApplyFeeRequest(c *gin.Context) (billingapp.ApplyFeeRequest, bool) {
	var req ApplyFeeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return billingapp.ApplyFeeRequest{}, false
		}
	}
	appReq, err := req.toAppRequest()
	if err != nil {
		h.BadRequest(c, "Invalid rate or quantity")
		return billingapp.ApplyFeeRequest{}, false
	}
	return appReq, true
}

// Create creates a fee catalog entry
func (h *FeeTypeHandler) Create(c *gin.Context) {
	var req FeeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq, err := req.toAppRequest()
	if err != nil {
		h.BadRequest(c, "Invalid default rate")
		return
	}

	feeType, err := h.feeService.CreateFeeType(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toFeeTypeResponse(feeType))
}

// Update updates a fee catalog entry. Charges already carrying the fee keep
// the stamped values.
func (h *FeeTypeHandler) Update(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	var req FeeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq, err := req.toAppRequest()
	if err != nil {
		h.BadRequest(c, "Invalid default rate")
		return
	}

	feeType, err := h.feeService.UpdateFeeType(c.Request.Context(), feeTypeID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponse(feeType))
}

// Get returns one fee catalog entry
func (h *FeeTypeHandler) Get(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	feeType, err := h.feeService.GetFeeType(c.Request.Context(), feeTypeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponse(feeType))
}

// List returns fee catalog entries. With active=true only active entries
// come back, unpaginated, for the fee-picker UI.
func (h *FeeTypeHandler) List(c *gin.Context) {
	if c.Query("active") == "true" {
		feeTypes, err := h.feeService.ListActiveFeeTypes(c.Request.Context())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		responses := make([]FeeTypeResponse, 0, len(feeTypes))
		for i := range feeTypes {
			responses = append(responses, toFeeTypeResponse(&feeTypes[i]))
		}
		h.Success(c, responses)
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}

	feeTypes, total, err := h.feeService.ListFeeTypes(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]FeeTypeResponse, 0, len(feeTypes))
	for i := range feeTypes {
		responses = append(responses, toFeeTypeResponse(&feeTypes[i]))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Deactivate retires a fee catalog entry without touching stamped instances
func (h *FeeTypeHandler) Deactivate(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	feeType, err := h.feeService.DeactivateFeeType(c.Request.Context(), feeTypeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeTypeResponse(feeType))
}

// Delete removes a fee catalog entry. Stamped instances keep their copied
// name and rate, so existing charges are unaffected.
func (h *FeeTypeHandler) Delete(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	if err := h.feeService.DeleteFeeType(c.Request.Context(), feeTypeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ApplyToCycle stamps the fee onto every charge of one cycle that doesn't
// already carry it. An optional body overrides the template rate and quantity.
func (h *FeeTypeHandler) ApplyToCycle(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	cycleID, err := uuid.Parse(c.Param("cycle_id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	appReq, ok := h.bindApplyFeeRequest(c)
	if !ok {
		return
	}

	applied, err := h.feeService.ApplyToCycle(c.Request.Context(), feeTypeID, cycleID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AppliedCountResponse{Affected: applied})
}

// ApplyToOpenCycles stamps the fee across every open cycle
func (h *FeeTypeHandler) ApplyToOpenCycles(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	appReq, ok := h.bindApplyFeeRequest(c)
	if !ok {
		return
	}

	applied, err := h.feeService.ApplyToOpenCycles(c.Request.Context(), feeTypeID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AppliedCountResponse{Affected: applied})
}

// RemoveFromCycle strips the fee's stamped instances from one cycle's charges
func (h *FeeTypeHandler) RemoveFromCycle(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	cycleID, err := uuid.Parse(c.Param("cycle_id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	removed, err := h.feeService.RemoveFromCycle(c.Request.Context(), feeTypeID, cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AppliedCountResponse{Affected: removed})
}

// RemoveFromOpenCycles strips the fee's stamped instances across every open cycle
func (h *FeeTypeHandler) RemoveFromOpenCycles(c *gin.Context) {
	feeTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee type ID")
		return
	}

	removed, err := h.feeService.RemoveFromOpenCycles(c.Request.Context(), feeTypeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AppliedCountResponse{Affected: removed})
}
