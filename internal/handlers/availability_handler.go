package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/detailnco/booking-backend/internal/services"
)

// AvailabilityHandler handles availability-related HTTP requests
type AvailabilityHandler struct {
	availabilityService *services.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityService: availabilityService,
	}
}

// GetAvailability handles GET /api/availability?date=YYYY-MM-DD&duration=120
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	durationStr := c.DefaultQuery("duration", "120")
	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be an integer number of minutes"})
		return
	}

	result, err := h.availabilityService.ComputeSlots(date, duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
