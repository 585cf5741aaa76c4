package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// ChargeHandler handles room charge API endpoints: meter readings, fee lines
// and the sent markers
type ChargeHandler struct {
	BaseHandler
	chargeService *billingapp.ChargeService
}

// NewChargeHandler creates a new ChargeHandler
func NewChargeHandler(chargeService *billingapp.ChargeService) *ChargeHandler {
	return &ChargeHandler{chargeService: chargeService}
}

// MeterUpdateRequest represents a partial update of one meter. Omitted fields
// keep their stored value.
type MeterUpdateRequest struct {
	Previous *int64  `json:"previous" binding:"omitempty,min=0"`
	Current  *int64  `json:"current" binding:"omitempty,min=0"`
	Rate     *string `json:"rate"`
}

// AddFeeRequest represents a request to attach a fee line to a charge.
// Either fee_type_id (catalog fee) or name (manual fee) must be provided.
type AddFeeRequest struct {
	FeeTypeID *string `json:"fee_type_id" binding:"omitempty,uuid"`
	Name      string  `json:"name" binding:"max=100"`
	UnitLabel string  `json:"unit_label" binding:"max=50"`
	Rate      *string `json:"rate"`
	Quantity  *string `json:"quantity"`
}

// parseMeterKind maps the :kind path segment to a meter kind
func parseMeterKind(raw string) (billing.MeterKind, bool) {
	kind := billing.MeterKind(strings.ToUpper(raw))
	return kind, kind.IsValid()
}

// parseOptionalDecimal parses an optional decimal field. Absent or empty
// fields come back nil so callers can tell "not provided" from an explicit
// zero.
func parseOptionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Get returns one charge with its derived totals
func (h *ChargeHandler) Get(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	charge, err := h.chargeService.Get(c.Request.Context(), chargeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// GetByRoom returns the charge of one room within a cycle. Room codes are
// the business key tenants and operators refer to, so the UI can deep-link
// without knowing charge IDs.
func (h *ChargeHandler) GetByRoom(c *gin.Context) {
	cycleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cycle ID")
		return
	}

	roomCode := c.Param("room_code")
	charge, err := h.chargeService.GetByRoom(c.Request.Context(), cycleID, roomCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// SetMeterReading updates one meter on a charge. Entering the first current
// reading moves the charge out of the missing-data state.
func (h *ChargeHandler) SetMeterReading(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	kind, ok := parseMeterKind(c.Param("kind"))
	if !ok {
		h.BadRequest(c, "Meter kind must be electric or water")
		return
	}

	var req MeterUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := billingapp.MeterUpdateRequest{
		Previous: req.Previous,
		Current:  req.Current,
	}
	if req.Rate != nil {
		rate, err := decimal.NewFromString(*req.Rate)
		if err != nil {
			h.BadRequest(c, "Invalid meter rate")
			return
		}
		appReq.Rate = &rate
	}

	charge, err := h.chargeService.SetMeterReading(c.Request.Context(), chargeID, kind, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// ConfirmMeterReading acknowledges a negative consumption reading, typically
// after a meter was replaced or reset
func (h *ChargeHandler) ConfirmMeterReading(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	kind, ok := parseMeterKind(c.Param("kind"))
	if !ok {
		h.BadRequest(c, "Meter kind must be electric or water")
		return
	}

	charge, err := h.chargeService.ConfirmMeterReading(c.Request.Context(), chargeID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// AddFee attaches a fee line to a charge, either stamped from the catalog or
// entered manually
func (h *ChargeHandler) AddFee(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	var req AddFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	rate, err := parseOptionalDecimal(req.Rate)
	if err != nil {
		h.BadRequest(c, "Invalid fee rate")
		return
	}
	quantity, err := parseOptionalDecimal(req.Quantity)
	if err != nil {
		h.BadRequest(c, "Invalid fee quantity")
		return
	}

	appReq := billingapp.AddFeeRequest{
		Name:      req.Name,
		UnitLabel: req.UnitLabel,
		Rate:      rate,
		Quantity:  quantity,
	}
	if req.FeeTypeID != nil {
		feeTypeID, err := uuid.Parse(*req.FeeTypeID)
		if err != nil {
			h.BadRequest(c, "Invalid fee type ID")
			return
		}
		appReq.FeeTypeID = &feeTypeID
	}

	charge, err := h.chargeService.AddFee(c.Request.Context(), chargeID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// RemoveFee removes one fee line from a charge
func (h *ChargeHandler) RemoveFee(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	feeID, err := uuid.Parse(c.Param("fee_id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	charge, err := h.chargeService.RemoveFee(c.Request.Context(), chargeID, feeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// MarkSent records that the bill was delivered to the tenant. Requires all
// meter readings to be in place.
func (h *ChargeHandler) MarkSent(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	charge, err := h.chargeService.MarkSent(c.Request.Context(), chargeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// MarkReminderSent records that a payment reminder was delivered
func (h *ChargeHandler) MarkReminderSent(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	charge, err := h.chargeService.MarkReminderSent(c.Request.Context(), chargeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}
