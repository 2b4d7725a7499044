package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests for the payment lifecycle and
// allocations.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:id", h.getPayment)
		payments.POST("/:id/allocations", h.allocatePayment)
		payments.POST("/:id/submit", h.submitPayment)
		payments.POST("/:id/approve", h.approvePayment)
		payments.POST("/:id/post", h.postPayment)
		payments.POST("/:id/cancel", h.cancelPayment)
	}
}

// createPayment godoc
// @Summary Create a draft payment
// @Description Creates a receipt or outgoing payment in DRAFT status, optionally with initial allocations
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} domain.Payment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Over-allocation"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to create payment")
		return
	}

	logger.Info("Payment created", slog.String("payment_id", payment.PaymentID), slog.String("payment_type", string(payment.PaymentType)))
	c.JSON(http.StatusCreated, payment)
}

// getPayment godoc
// @Summary Get a payment by ID
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// listPayments godoc
// @Summary List the tenant's payments
// @Tags payments
// @Produce  json
// @Param   paymentType query string false "Filter by payment type"
// @Param   status query string false "Filter by status"
// @Param   partyID query string false "Filter by party"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListPayments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// allocatePayment godoc
// @Summary Allocate part of a payment to an invoice
// @Description Applies an amount of the payment against an open posted invoice; rejects over-allocation and duplicates
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   allocation body dto.AllocationRequest true "Allocation details"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment or invoice not found"
// @Failure 409 {object} map[string]string "Duplicate allocation"
// @Failure 422 {object} map[string]string "Over-allocation"
// @Security BearerAuth
// @Router /payments/{id}/allocations [post]
func (h *paymentHandler) allocatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AllocatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.AllocatePayment(c.Request.Context(), tenantID, c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to allocate payment")
		return
	}

	logger.Info("Payment allocated", slog.String("payment_id", c.Param("id")), slog.String("invoice_id", req.InvoiceID))
	c.JSON(http.StatusOK, payment)
}

// submitPayment godoc
// @Summary Submit a payment for approval
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 422 {object} map[string]string "Illegal transition"
// @Security BearerAuth
// @Router /payments/{id}/submit [post]
func (h *paymentHandler) submitPayment(c *gin.Context) {
	h.transition(c, h.paymentService.SubmitPayment, "Failed to submit payment")
}

// approvePayment godoc
// @Summary Approve a submitted payment
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Self-approval not allowed"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 422 {object} map[string]string "Illegal transition"
// @Security BearerAuth
// @Router /payments/{id}/approve [post]
func (h *paymentHandler) approvePayment(c *gin.Context) {
	h.transition(c, h.paymentService.ApprovePayment, "Failed to approve payment")
}

// postPayment godoc
// @Summary Post an approved payment
// @Description Requires allocations summing exactly to the payment amount; settles the allocated invoices atomically
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Already posted"
// @Failure 422 {object} map[string]string "Allocation mismatch or closed period"
// @Security BearerAuth
// @Router /payments/{id}/post [post]
func (h *paymentHandler) postPayment(c *gin.Context) {
	h.transition(c, h.paymentService.PostPayment, "Failed to post payment")
}

// cancelPayment godoc
// @Summary Cancel a pre-posting payment
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 422 {object} map[string]string "Illegal transition"
// @Security BearerAuth
// @Router /payments/{id}/cancel [post]
func (h *paymentHandler) cancelPayment(c *gin.Context) {
	h.transition(c, h.paymentService.CancelPayment, "Failed to cancel payment")
}

func (h *paymentHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, paymentID, userID string) (*domain.Payment, error), fallbackMsg string) {
	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	payment, err := fn(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		respondError(c, err, fallbackMsg)
		return
	}

	c.JSON(http.StatusOK, payment)
}
