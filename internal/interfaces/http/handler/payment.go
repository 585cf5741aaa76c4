package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/shared/valueobject"
)

// PaymentHandler handles payment API endpoints on room charges
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentRequest represents a request to record a tenant payment
type RecordPaymentRequest struct {
	Amount    string     `json:"amount" binding:"required"`
	PaidAt    *time.Time `json:"paid_at"`
	Note      string     `json:"note" binding:"max=500"`
	IsPartial bool       `json:"is_partial"`
}

// OverridePaymentRequest represents an administrative correction of the paid
// amount; the reason is mandatory and kept on the charge
type OverridePaymentRequest struct {
	AmountPaid string `json:"amount_paid" binding:"required"`
	Reason     string `json:"reason" binding:"required,min=1,max=500"`
}

// Record records a payment against a charge
func (h *PaymentHandler) Record(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	amount, err := valueobject.NewMoneyVNDFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid payment amount")
		return
	}

	charge, err := h.paymentService.RecordPayment(c.Request.Context(), chargeID, billingapp.RecordPaymentRequest{
		Amount:    amount.Amount(),
		PaidAt:    req.PaidAt,
		Note:      req.Note,
		IsPartial: req.IsPartial,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}

// Override replaces the paid amount on a charge with a corrected value
func (h *PaymentHandler) Override(c *gin.Context) {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid charge ID")
		return
	}

	var req OverridePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	amountPaid, err := valueobject.NewMoneyVNDFromString(req.AmountPaid)
	if err != nil {
		h.BadRequest(c, "Invalid paid amount")
		return
	}

	charge, err := h.paymentService.OverridePayment(c.Request.Context(), chargeID, billingapp.OverridePaymentRequest{
		AmountPaid: amountPaid.Amount(),
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toChargeResponse(charge))
}
