package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/services"
)

func setupAvailabilityRouter(db database.DB) *gin.Engine {
	repo := database.NewBookingRepository(db)
	svc := services.NewAvailabilityService(repo, testConfig().Booking)
	handler := NewAvailabilityHandler(svc)

	router := gin.New()
	router.GET("/api/availability", handler.GetAvailability)
	return router
}

func TestGetAvailabilityEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupAvailabilityRouter(db)

		now := time.Now().UnixMilli()
		mock.ExpectQuery("SELECT (.+) FROM bookings").
			WithArgs("2030-01-02", sqlmock.AnyArg()).
			WillReturnRows(bookingRows().AddRow(
				int64(3), "2030-01-02", "18:00", 60, now, now+60*60_000,
				"approved", nil, nil, nil, "pay-tok",
				"Bo Riley", "bo@example.com", "",
				"4 Elm St", "Mazda 3", "small", "select", "", "",
				101.69, "CAD", now, now, now,
			))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/availability?date=2030-01-02&duration=60", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp services.AvailabilityResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2030-01-02", resp.Date)
		assert.Equal(t, 60, resp.DurationMin)
		require.NotEmpty(t, resp.Slots)
		assert.Equal(t, "16:30", resp.Slots[0].Start)

		// The 18:00-19:00 booking must block its window.
		for _, slot := range resp.Slots {
			assert.NotEqual(t, "18:00", slot.Start)
			assert.NotEqual(t, "17:30", slot.Start)
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Default Duration", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupAvailabilityRouter(db)

		mock.ExpectQuery("SELECT (.+) FROM bookings").
			WithArgs("2030-01-02", sqlmock.AnyArg()).
			WillReturnRows(bookingRows())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/availability?date=2030-01-02", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp services.AvailabilityResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 120, resp.DurationMin)
		require.NotEmpty(t, resp.Slots)
		// Weekday closes 22:00, so 20:00 is the last 120-minute start.
		assert.Equal(t, "20:00", resp.Slots[len(resp.Slots)-1].Start)
	})

	t.Run("Missing Date", func(t *testing.T) {
		db, _, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupAvailabilityRouter(db)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Bad Duration", func(t *testing.T) {
		db, _, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupAvailabilityRouter(db)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/availability?date=2030-01-02&duration=soon", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
