package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/utils"
)

// AuditService writes the booking_events trail. Logging is best-effort:
// callers log the returned error and move on, an audit failure never blocks
// a booking operation.
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents a booking event to be logged
type AuditEvent struct {
	BookingID *int64 // nil for events with no booking row, e.g. rejected submissions
	Action    string // e.g. "booking_created", "booking_approved"
	IPAddress string
	UserAgent string
	Details   map[string]interface{}
}

// LogBookingCreated records a successful hold placement.
func (s *AuditService) LogBookingCreated(bookingID int64, email, ipAddress, userAgent string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		BookingID: &bookingID,
		Action:    "booking_created",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"device_info": deviceInfo,
		},
	})
}

// LogBookingDecision records an operator approve/reject outcome, including
// races lost and lapses discovered at click time.
func (s *AuditService) LogBookingDecision(bookingID int64, action, outcome, ipAddress, userAgent string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		BookingID: &bookingID,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"outcome":     outcome,
			"device_info": deviceInfo,
		},
	})
}

// LogRateLimitViolation records a throttled booking submission.
func (s *AuditService) LogRateLimitViolation(email, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		BookingID: nil,
		Action:    "rate_limit_violation",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"limit_type":  limitType, // "email" or "ip"
			"retry_after": retryAfter,
			"device_info": deviceInfo,
		},
	})
}

// LogCheckoutCreated records a payment checkout session.
func (s *AuditService) LogCheckoutCreated(bookingID int64, provider, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		BookingID: &bookingID,
		Action:    "checkout_created",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"provider": provider,
		},
	})
}

// logEvent is the internal method that writes to the booking_events table
func (s *AuditService) logEvent(event AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO booking_events (id, booking_id, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err = s.db.Exec(
		query,
		uuid.New(),
		event.BookingID,
		event.Action,
		event.IPAddress,
		event.UserAgent,
		details,
	)

	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// CleanupOldEvents removes booking events older than the specified duration.
func (s *AuditService) CleanupOldEvents(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.Exec(`DELETE FROM booking_events WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old events: %w", err)
	}

	return result.RowsAffected()
}
