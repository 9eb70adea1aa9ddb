package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/pricing"
	"github.com/detailnco/booking-backend/internal/services"
	"github.com/detailnco/booking-backend/pkg/mail"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB creates a mock database for testing
func setupTestDB(t *testing.T) (database.DB, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return &database.PostgresDB{DB: sqlxDB}, mock, func() { mockDB.Close() }
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			WeekdayOpenMin:  16*60 + 30,
			WeekdayCloseMin: 22 * 60,
			WeekendOpenMin:  10 * 60,
			WeekendCloseMin: 22 * 60,
			SlotStepMin:     30,
			HoldDuration:    45 * time.Minute,
			MinDurationMin:  30,
			MaxDurationMin:  720,
			BusinessEmail:   "owner@example.com",
		},
		RateLimit: config.RateLimitConfig{
			MaxEmailRequests: 3,
			EmailWindow:      10 * time.Minute,
			MaxIPRequests:    10,
			IPWindow:         time.Hour,
		},
	}
}

// setupBookingRouter wires a booking handler onto a fresh router, backed by
// real services over the mock database.
func setupBookingRouter(db database.DB) *gin.Engine {
	cfg := testConfig()
	logger := quietLogger()

	repo := database.NewBookingRepository(db)
	bookingService := services.NewBookingService(repo, pricing.DefaultCatalog(), mail.NewDevGateway(logger), cfg.Booking, "https://example.com", logger)
	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	auditService := services.NewAuditService(db)

	handler := NewBookingHandler(bookingService, rateLimitService, auditService, logger)

	router := gin.New()
	router.POST("/api/bookings", handler.CreateBooking)
	router.GET("/api/bookings/approve", handler.ApproveBooking)
	router.GET("/api/bookings/reject", handler.RejectBooking)
	return router
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "date", "start_time", "duration_min", "start_ms", "end_ms",
		"status", "expires_at_ms", "approve_token", "reject_token", "pay_token",
		"customer_name", "customer_email", "customer_phone",
		"location", "vehicle", "vehicle_size", "package", "addons", "notes",
		"total_cad", "currency", "created_at_ms", "updated_at_ms", "approved_at_ms",
	})
}

func createBookingBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		// Always in the future, always a weekday.
		"date":        "2030-01-02",
		"startTime":   "17:30",
		"durationMin": 120,
		"customer": map[string]string{
			"name":  "Ana Cole",
			"email": "ana@example.com",
			"phone": "555-0101",
		},
		"details": map[string]interface{}{
			"location":    "12 King St W",
			"vehicle":     "Audi Q5",
			"vehicleSize": "medium",
			"package":     "signature",
			"addonKeys":   []string{},
		},
	})
	return body
}

func expectRateLimitCheck(mock sqlmock.Sqlmock, count int) {
	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs("ana@example.com", "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(count, time.Now().Add(-time.Minute)))
	if count < 3 {
		mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
			WithArgs(sqlmock.AnyArg(), "ip", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
				AddRow(0, time.Now().Add(-time.Minute)))
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		expectRateLimitCheck(mock, 0)
		mock.ExpectExec("UPDATE bookings").
			WillReturnResult(sqlmock.NewResult(0, 0)) // expiry sweep
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
		mock.ExpectExec("INSERT INTO booking_rate_limits").
			WithArgs("ana@example.com", "email").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO booking_rate_limits").
			WithArgs(sqlmock.AnyArg(), "ip").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(createBookingBody()))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp services.CreateResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(42), resp.BookingID)
		assert.Equal(t, "pending", resp.Status)
		// signature x medium with 13% tax
		assert.InDelta(t, 186.44, resp.Total, 0.001)
		assert.Empty(t, resp.Warning)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Taken", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		expectRateLimitCheck(mock, 0)
		mock.ExpectExec("UPDATE bookings").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"})) // conditional insert matched nothing

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(createBookingBody()))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rate Limited", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		expectRateLimitCheck(mock, 3)
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1)) // violation audit row

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(createBookingBody()))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "retry_after")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Body", func(t *testing.T) {
		db, _, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader([]byte(`{not json`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApproveBookingEndpoint(t *testing.T) {
	t.Run("Approved", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		now := time.Now().UnixMilli()
		expires := now + 30*60_000

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE approve_token").
			WithArgs("tok-1").
			WillReturnRows(bookingRows().AddRow(
				int64(7), "2030-01-02", "17:30", 120, now+86_400_000, now+86_400_000+120*60_000,
				"pending", expires, "tok-1", "tok-2", nil,
				"Ana Cole", "ana@example.com", "",
				"12 King St W", "Audi Q5", "medium", "signature", "", "",
				186.44, "CAD", now, now, nil,
			))
		mock.ExpectExec("UPDATE bookings").
			WillReturnResult(sqlmock.NewResult(0, 1)) // conditional approval
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs(int64(7)).
			WillReturnRows(bookingRows().AddRow(
				int64(7), "2030-01-02", "17:30", 120, now+86_400_000, now+86_400_000+120*60_000,
				"approved", nil, nil, nil, "pay-tok",
				"Ana Cole", "ana@example.com", "",
				"12 King St W", "Audi Q5", "medium", "signature", "", "",
				186.44, "CAD", now, now, now,
			))
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/approve?token=tok-1", nil)
		router.ServeHTTP(w, req)

		// Approving drops the operator straight onto the payment page.
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/payments.html?bookingId=7&token=pay-tok")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Expired Hold", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		now := time.Now().UnixMilli()
		expires := now - 60_000

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE approve_token").
			WithArgs("tok-1").
			WillReturnRows(bookingRows().AddRow(
				int64(7), "2030-01-02", "17:30", 120, now, now+120*60_000,
				"pending", expires, "tok-1", "tok-2", nil,
				"Ana Cole", "ana@example.com", "",
				"12 King St W", "Audi Q5", "medium", "signature", "", "",
				186.44, "CAD", now, now, nil,
			))
		mock.ExpectExec("UPDATE bookings").
			WillReturnResult(sqlmock.NewResult(0, 1)) // settle expired status
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/approve?token=tok-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGone, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Token", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE approve_token").
			WithArgs("missing").
			WillReturnRows(bookingRows())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/approve?token=missing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing Token", func(t *testing.T) {
		db, _, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/approve", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRejectBookingEndpoint(t *testing.T) {
	t.Run("Rejected", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		now := time.Now().UnixMilli()
		expires := now + 30*60_000

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE reject_token").
			WithArgs("tok-2").
			WillReturnRows(bookingRows().AddRow(
				int64(7), "2030-01-02", "17:30", 120, now, now+120*60_000,
				"pending", expires, "tok-1", "tok-2", nil,
				"Ana Cole", "ana@example.com", "",
				"12 King St W", "Audi Q5", "medium", "signature", "", "",
				186.44, "CAD", now, now, nil,
			))
		mock.ExpectExec("UPDATE bookings").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/reject?token=tok-2", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Booking rejected")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Handled", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		router := setupBookingRouter(db)

		now := time.Now().UnixMilli()

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE reject_token").
			WithArgs("tok-2").
			WillReturnRows(bookingRows().AddRow(
				int64(7), "2030-01-02", "17:30", 120, now, now+120*60_000,
				"rejected", nil, nil, "tok-2", nil,
				"Ana Cole", "ana@example.com", "",
				"12 King St W", "Audi Q5", "medium", "signature", "", "",
				186.44, "CAD", now, now, nil,
			))
		mock.ExpectExec("INSERT INTO booking_events").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/reject?token=tok-2", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Already handled")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
