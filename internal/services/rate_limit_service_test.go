package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	cfg := config.RateLimitConfig{
		MaxEmailRequests: 3,
		EmailWindow:      10 * time.Minute,
		MaxIPRequests:    10,
		IPWindow:         time.Hour,
	}
	service := NewRateLimitService(postgresDB, cfg)

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestCheckBookingRateLimit_NoRequests(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "ana@example.com"
	ip := "203.0.113.9"

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	err := service.CheckBookingRateLimit(email, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBookingRateLimit_EmailExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "ana@example.com"
	lastRequest := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(3, lastRequest))

	err := service.CheckBookingRateLimit(email, "203.0.113.9")
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "email", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many booking requests for this email")
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBookingRateLimit_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "ana@example.com"
	ip := "203.0.113.9"
	lastRequest := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(1, lastRequest))

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(10, lastRequest))

	err := service.CheckBookingRateLimit(email, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok)
	assert.Equal(t, "ip", rateLimitErr.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBookingRateLimit_EmailNormalized(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM booking_rate_limits").
		WithArgs("ana@example.com", "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	err := service.CheckBookingRateLimit("  Ana@Example.COM ", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordBookingRequest(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "ana@example.com"
	ip := "203.0.113.9"

	mock.ExpectExec("INSERT INTO booking_rate_limits").
		WithArgs(email, "email").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO booking_rate_limits").
		WithArgs(ip, "ip").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordBookingRequest(email, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpiredRateLimits(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM booking_rate_limits").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := service.CleanupExpiredRateLimits()
	assert.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
