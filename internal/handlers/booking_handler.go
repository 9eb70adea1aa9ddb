package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/models"
	"github.com/detailnco/booking-backend/internal/services"
	"github.com/detailnco/booking-backend/internal/utils"
)

// BookingHandler handles booking lifecycle HTTP requests
type BookingHandler struct {
	bookingService   *services.BookingService
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
	logger           *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookingService *services.BookingService,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService:   bookingService,
		rateLimitService: rateLimitService,
		auditService:     auditService,
		logger:           logger,
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ip := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if err := h.rateLimitService.CheckBookingRateLimit(req.Customer.Email, ip); err != nil {
		var rlErr *services.RateLimitError
		if errors.As(err, &rlErr) {
			if auditErr := h.auditService.LogRateLimitViolation(req.Customer.Email, ip, userAgent, rlErr.Type, rlErr.RetryAfter); auditErr != nil {
				h.logger.WithError(auditErr).Warn("Failed to log rate limit violation")
			}
		}
		respondError(c, err)
		return
	}

	result, err := h.bookingService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.rateLimitService.RecordBookingRequest(req.Customer.Email, ip); err != nil {
		h.logger.WithError(err).Warn("Failed to record booking rate limit")
	}
	if err := h.auditService.LogBookingCreated(result.BookingID, req.Customer.Email, ip, userAgent); err != nil {
		h.logger.WithError(err).Warn("Failed to log booking creation")
	}

	c.JSON(http.StatusCreated, result)
}

// ApproveBooking handles GET /api/bookings/approve?token=...
// The link lives in the operator's email, so the response is a human-readable
// HTML page for every outcome.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		renderOutcome(c, http.StatusBadRequest, outcomeData{
			Title: "Invalid link",
			Body:  "This approval link is missing its token.",
		})
		return
	}

	booking, err := h.bookingService.Approve(token)
	h.logDecision(c, booking, "booking_approve_clicked", err)

	if err == nil {
		// Drop the operator straight onto the payment page for this booking.
		if payURL := h.bookingService.PaymentPageURL(booking); payURL != "" {
			c.Redirect(http.StatusFound, payURL)
			return
		}
		renderOutcome(c, http.StatusOK, outcomeData{
			Title: "Booking approved",
			Body: fmt.Sprintf("Booking #%d on %s at %s is confirmed. The customer has been emailed a payment link.",
				booking.ID, booking.Date, booking.StartTime),
			OK: true,
		})
		return
	}

	var handled *services.AlreadyHandledError
	switch {
	case errors.As(err, &handled):
		renderOutcome(c, http.StatusOK, outcomeData{
			Title: "Already handled",
			Body:  fmt.Sprintf("This booking was already %s. No changes were made.", handled.Status),
			OK:    true,
		})
	case errors.Is(err, services.ErrHoldExpired):
		renderOutcome(c, http.StatusGone, outcomeData{
			Title: "Request expired",
			Body:  "This booking request expired before it was approved. The slot has been released.",
		})
	case errors.Is(err, database.ErrSlotTaken):
		renderOutcome(c, http.StatusConflict, outcomeData{
			Title: "Slot no longer free",
			Body:  "Another booking for an overlapping time was approved first. This request has been rejected and the customer notified.",
		})
	case errors.Is(err, database.ErrNotFound):
		renderOutcome(c, http.StatusNotFound, outcomeData{
			Title: "Unknown link",
			Body:  "This approval link is not valid. It may have already been used.",
		})
	default:
		h.logger.WithError(err).Error("Approve failed")
		renderOutcome(c, http.StatusInternalServerError, outcomeData{
			Title: "Something went wrong",
			Body:  "The booking could not be approved. Please try again shortly.",
		})
	}
}

// RejectBooking handles GET /api/bookings/reject?token=...
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		renderOutcome(c, http.StatusBadRequest, outcomeData{
			Title: "Invalid link",
			Body:  "This rejection link is missing its token.",
		})
		return
	}

	booking, err := h.bookingService.Reject(token)
	h.logDecision(c, booking, "booking_reject_clicked", err)

	if err == nil {
		renderOutcome(c, http.StatusOK, outcomeData{
			Title: "Booking rejected",
			Body: fmt.Sprintf("Booking #%d on %s at %s was rejected. The customer has been notified.",
				booking.ID, booking.Date, booking.StartTime),
			OK: true,
		})
		return
	}

	var handled *services.AlreadyHandledError
	switch {
	case errors.As(err, &handled):
		renderOutcome(c, http.StatusOK, outcomeData{
			Title: "Already handled",
			Body:  fmt.Sprintf("This booking was already %s. No changes were made.", handled.Status),
			OK:    true,
		})
	case errors.Is(err, database.ErrNotFound):
		renderOutcome(c, http.StatusNotFound, outcomeData{
			Title: "Unknown link",
			Body:  "This rejection link is not valid. It may have already been used.",
		})
	default:
		h.logger.WithError(err).Error("Reject failed")
		renderOutcome(c, http.StatusInternalServerError, outcomeData{
			Title: "Something went wrong",
			Body:  "The booking could not be rejected. Please try again shortly.",
		})
	}
}

func (h *BookingHandler) logDecision(c *gin.Context, booking *models.Booking, action string, opErr error) {
	if booking == nil {
		return
	}
	outcome := "ok"
	if opErr != nil {
		outcome = opErr.Error()
	}
	if err := h.auditService.LogBookingDecision(booking.ID, action, outcome, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		h.logger.WithError(err).Warn("Failed to log booking decision")
	}
}
