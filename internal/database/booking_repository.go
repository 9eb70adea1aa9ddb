package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/detailnco/booking-backend/internal/models"
)

var (
	// ErrSlotTaken is returned when a conditional insert or approval loses
	// to an occupying booking on the same interval.
	ErrSlotTaken = errors.New("slot overlaps an existing booking or hold")

	// ErrNotFound is returned when no booking matches the given id or token.
	ErrNotFound = errors.New("booking not found")
)

const bookingColumns = `id, date, start_time, duration_min, start_ms, end_ms,
	status, expires_at_ms, approve_token, reject_token, pay_token,
	customer_name, customer_email, customer_phone,
	location, vehicle, vehicle_size, package, addons, notes,
	total_cad, currency, created_at_ms, updated_at_ms, approved_at_ms`

// BookingRepository handles booking database operations. Check-and-write
// sequences are single conditional statements so that concurrent requests
// from different processes stay safe without in-memory locks.
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateHold inserts a pending booking if and only if no occupying booking
// overlaps the requested [start_ms, end_ms) window on the same date. An
// occupying booking is approved, or pending with an unexpired hold.
// Returns ErrSlotTaken when the conditional insert matched nothing.
func (r *BookingRepository) CreateHold(b *models.Booking) (int64, error) {
	query := `
		INSERT INTO bookings (
			date, start_time, duration_min, start_ms, end_ms,
			status, expires_at_ms, approve_token, reject_token,
			customer_name, customer_email, customer_phone,
			location, vehicle, vehicle_size, package, addons, notes,
			total_cad, currency, created_at_ms, updated_at_ms
		)
		SELECT $1, $2, $3, $4, $5,
			'pending', $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $20
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE date = $1
			  AND NOT (end_ms <= $4 OR start_ms >= $5)
			  AND (status = 'approved' OR (status = 'pending' AND expires_at_ms > $20))
		)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(query,
		b.Date, b.StartTime, b.DurationMin, b.StartMs, b.EndMs,
		b.ExpiresAtMs, b.ApproveToken, b.RejectToken,
		b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.Location, b.Vehicle, b.VehicleSize, b.Package, b.Addons, b.Notes,
		b.TotalCAD, b.Currency, b.CreatedAtMs,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrSlotTaken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create booking hold: %w", err)
	}

	b.ID = id
	b.UpdatedAtMs = b.CreatedAtMs
	return id, nil
}

// GetByID retrieves a booking by id
func (r *BookingRepository) GetByID(id int64) (*models.Booking, error) {
	var b models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	err := r.db.Get(&b, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// GetByApproveToken retrieves a booking by its approval capability token
func (r *BookingRepository) GetByApproveToken(token string) (*models.Booking, error) {
	return r.getByToken("approve_token", token)
}

// GetByRejectToken retrieves a booking by its rejection capability token
func (r *BookingRepository) GetByRejectToken(token string) (*models.Booking, error) {
	return r.getByToken("reject_token", token)
}

func (r *BookingRepository) getByToken(column, token string) (*models.Booking, error) {
	var b models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s = $1 LIMIT 1`, bookingColumns, column)
	err := r.db.Get(&b, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by token: %w", err)
	}
	return &b, nil
}

// ListOccupying returns the bookings that count for overlap checks on a date:
// approved rows plus pending rows whose hold has not lapsed as of nowMs.
// Ordered by start time ascending.
func (r *BookingRepository) ListOccupying(date string, nowMs int64) ([]models.Booking, error) {
	var bookings []models.Booking
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE date = $1
		  AND (status = 'approved' OR (status = 'pending' AND expires_at_ms > $2))
		ORDER BY start_ms ASC`, bookingColumns)

	if err := r.db.Select(&bookings, query, date, nowMs); err != nil {
		return nil, fmt.Errorf("failed to list occupying bookings: %w", err)
	}
	return bookings, nil
}

// ApproveIfFree transitions a pending booking to approved, but only while no
// other approved booking overlaps its window. Both action tokens are cleared
// and a pay token is attached atomically. Returns false when the booking was
// not pending anymore or the conditional overlap check failed.
func (r *BookingRepository) ApproveIfFree(id int64, payToken string, nowMs int64) (bool, error) {
	query := `
		UPDATE bookings AS b
		SET status = 'approved',
		    approve_token = NULL,
		    reject_token = NULL,
		    pay_token = COALESCE(b.pay_token, $2),
		    approved_at_ms = COALESCE(b.approved_at_ms, $3),
		    updated_at_ms = $3
		WHERE b.id = $1
		  AND b.status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM bookings o
			WHERE o.id <> b.id
			  AND o.date = b.date
			  AND o.status = 'approved'
			  AND NOT (o.end_ms <= b.start_ms OR o.start_ms >= b.end_ms)
		  )`

	res, err := r.db.Exec(query, id, payToken, nowMs)
	if err != nil {
		return false, fmt.Errorf("failed to approve booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read approval result: %w", err)
	}
	return affected == 1, nil
}

// MarkRejected transitions a pending booking to rejected and clears both
// action tokens. Returns false when the booking was not pending.
func (r *BookingRepository) MarkRejected(id int64, nowMs int64) (bool, error) {
	return r.markTerminal(id, string(models.StatusRejected), nowMs)
}

// MarkExpired transitions a pending booking to expired and clears both
// action tokens. Returns false when the booking was not pending.
func (r *BookingRepository) MarkExpired(id int64, nowMs int64) (bool, error) {
	return r.markTerminal(id, string(models.StatusExpired), nowMs)
}

func (r *BookingRepository) markTerminal(id int64, status string, nowMs int64) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, approve_token = NULL, reject_token = NULL, updated_at_ms = $3
		WHERE id = $1 AND status = 'pending'`

	res, err := r.db.Exec(query, id, status, nowMs)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking %s: %w", status, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected == 1, nil
}

// SweepExpired bulk-expires pending holds whose deadline has passed. Lapsed
// holds already carry no reservation weight before the sweep; this only
// settles the stored status. Returns the number of rows swept.
func (r *BookingRepository) SweepExpired(nowMs int64) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'expired', approve_token = NULL, reject_token = NULL, updated_at_ms = $1
		WHERE status = 'pending' AND expires_at_ms <= $1`

	res, err := r.db.Exec(query, nowMs)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired holds: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep result: %w", err)
	}
	return affected, nil
}
