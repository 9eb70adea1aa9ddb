package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/services"
)

// respondError maps service errors onto HTTP statuses for the JSON API.
func respondError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
		return
	}

	var rlErr *services.RateLimitError
	if errors.As(err, &rlErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       rlErr.Message,
			"retry_after": rlErr.RetryAfter,
		})
		return
	}

	var depErr *services.DependencyError
	if errors.As(err, &depErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider is unavailable. Please try again."})
		return
	}

	switch {
	case errors.Is(err, database.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "That time slot was just taken. Please pick another slot."})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, services.ErrHoldExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This booking request has expired"})
	case errors.Is(err, services.ErrNotApproved):
		c.JSON(http.StatusForbidden, gin.H{"error": "Booking is not approved for payment"})
	case errors.Is(err, services.ErrInvalidPayToken):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid payment token"})
	case errors.Is(err, services.ErrNoPayableAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Booking has no payable amount"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
