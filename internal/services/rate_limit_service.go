package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
)

// RateLimitService throttles booking submissions per customer email and per
// source IP. Counters live in booking_rate_limits so limits survive restarts
// and apply across replicas.
type RateLimitService struct {
	db  database.DB
	cfg config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckBookingRateLimit checks whether a customer email or source IP has
// exceeded its submission budget.
func (s *RateLimitService) CheckBookingRateLimit(email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		count, lastRequest, err := s.getRequestCount(email, "email", s.cfg.EmailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= s.cfg.MaxEmailRequests {
			retryAfter := lastRequest.Add(s.cfg.EmailWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many booking requests for this email. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, lastRequest, err := s.getRequestCount(ip, "ip", s.cfg.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.cfg.MaxIPRequests {
			retryAfter := lastRequest.Add(s.cfg.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many booking requests from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM booking_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

// RecordBookingRequest records a submission against both counters. Called
// after the hold is placed; failed submissions do not consume budget.
func (s *RateLimitService) RecordBookingRequest(email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		if err := s.recordRequest(email, "email"); err != nil {
			return fmt.Errorf("failed to record email request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP request: %w", err)
		}
	}

	return nil
}

// recordRequest inserts a rate limit record
func (s *RateLimitService) recordRequest(identifier, identifierType string) error {
	query := `
		INSERT INTO booking_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// CleanupExpiredRateLimits removes records older than the longest window.
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	maxWindow := s.cfg.EmailWindow
	if s.cfg.IPWindow > maxWindow {
		maxWindow = s.cfg.IPWindow
	}
	cutoff := time.Now().Add(-maxWindow)

	result, err := s.db.Exec(`DELETE FROM booking_rate_limits WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	return result.RowsAffected()
}
