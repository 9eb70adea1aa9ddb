package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/detailnco/booking-backend/internal/services"
	"github.com/detailnco/booking-backend/internal/utils"
)

// PaymentHandler handles payment gate HTTP requests
type PaymentHandler struct {
	paymentService *services.PaymentService
	auditService   *services.AuditService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, auditService *services.AuditService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		auditService:   auditService,
		logger:         logger,
	}
}

// CheckoutRequest represents the request to start a checkout session
type CheckoutRequest struct {
	BookingID int64  `json:"bookingId" binding:"required"`
	Token     string `json:"token" binding:"required"`
	Provider  string `json:"provider"` // "stripe" (default) or "paypal"
}

// GetQuote handles GET /api/payments/quote?booking=7&token=...
// The payment page sends booking=; older links used bookingId=.
func (h *PaymentHandler) GetQuote(c *gin.Context) {
	idStr := c.Query("booking")
	if idStr == "" {
		idStr = c.Query("bookingId")
	}
	bookingID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking must be an integer"})
		return
	}

	quote, err := h.paymentService.Quote(bookingID, c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// CreateCheckout handles POST /api/payments/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.paymentService.Checkout(req.BookingID, req.Token, req.Provider)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.auditService.LogCheckoutCreated(req.BookingID, result.Provider, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		h.logger.WithError(err).Warn("Failed to log checkout creation")
	}

	c.JSON(http.StatusOK, result)
}
