package models

import (
	"fmt"
	"regexp"
	"strings"
)

// BookingStatus represents the lifecycle state of a booking.
// pending is the only non-terminal state.
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"  // soft hold, waiting for operator approval
	StatusApproved BookingStatus = "approved" // operator approved, payment link issued
	StatusRejected BookingStatus = "rejected" // operator rejected or lost an approval race
	StatusExpired  BookingStatus = "expired"  // hold lapsed without a decision
)

// Terminal reports whether no further transitions may leave the status.
func (s BookingStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Booking is the central entity. Rows are never deleted; they are retained
// for history after reaching a terminal status.
type Booking struct {
	ID          int64  `db:"id" json:"id"`
	Date        string `db:"date" json:"date"`             // YYYY-MM-DD, operator-local
	StartTime   string `db:"start_time" json:"start_time"` // HH:MM
	DurationMin int    `db:"duration_min" json:"duration_min"`
	StartMs     int64  `db:"start_ms" json:"start_ms"`
	EndMs       int64  `db:"end_ms" json:"end_ms"`

	Status       BookingStatus `db:"status" json:"status"`
	ExpiresAtMs  *int64        `db:"expires_at_ms" json:"expires_at_ms,omitempty"`
	ApproveToken *string       `db:"approve_token" json:"-"`
	RejectToken  *string       `db:"reject_token" json:"-"`
	PayToken     *string       `db:"pay_token" json:"-"`

	CustomerName  string `db:"customer_name" json:"customer_name"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`
	CustomerPhone string `db:"customer_phone" json:"customer_phone"`

	Location    string `db:"location" json:"location"`
	Vehicle     string `db:"vehicle" json:"vehicle"`
	VehicleSize string `db:"vehicle_size" json:"vehicle_size"`
	Package     string `db:"package" json:"package"`
	Addons      string `db:"addons" json:"addons"`
	Notes       string `db:"notes" json:"notes"`

	TotalCAD float64 `db:"total_cad" json:"total"`
	Currency string  `db:"currency" json:"currency"`

	CreatedAtMs  int64  `db:"created_at_ms" json:"created_at_ms"`
	UpdatedAtMs  int64  `db:"updated_at_ms" json:"updated_at_ms"`
	ApprovedAtMs *int64 `db:"approved_at_ms" json:"approved_at_ms,omitempty"`
}

// Lapsed reports whether a pending hold has passed its deadline. Lapsed holds
// carry no reservation weight even before the row is physically swept.
func (b *Booking) Lapsed(nowMs int64) bool {
	return b.Status == StatusPending && b.ExpiresAtMs != nil && *b.ExpiresAtMs <= nowMs
}

// Slot is a free start/end pair produced by the availability calculator.
// Slots are transient values, never persisted.
type Slot struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// CustomerInput is the customer block of a booking submission.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DetailsInput is the vehicle/service block of a booking submission.
// Package, VehicleSize and AddonKeys are catalog keys; the server prices
// the job from them rather than trusting a client-computed total.
type DetailsInput struct {
	Location    string   `json:"location"`
	Vehicle     string   `json:"vehicle"`
	VehicleSize string   `json:"vehicleSize"`
	Package     string   `json:"package"`
	AddonKeys   []string `json:"addonKeys"`
	Notes       string   `json:"notes"`
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	Date        string        `json:"date"`
	StartTime   string        `json:"startTime"`
	DurationMin int           `json:"durationMin"`
	StartMs     int64         `json:"startMs"`
	EndMs       int64         `json:"endMs"`
	Customer    CustomerInput `json:"customer"`
	Details     DetailsInput  `json:"details"`
}

// Validate checks field presence and formats. Range checks that depend on
// business configuration (duration bounds, business hours) live in the
// booking service.
func (r *CreateBookingRequest) Validate() error {
	if !dateRe.MatchString(r.Date) {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if !timeRe.MatchString(r.StartTime) {
		return fmt.Errorf("startTime must be HH:MM")
	}
	if r.DurationMin <= 0 {
		return fmt.Errorf("durationMin must be positive")
	}
	if strings.TrimSpace(r.Customer.Name) == "" {
		return fmt.Errorf("customer.name is required")
	}
	if strings.TrimSpace(r.Customer.Email) == "" {
		return fmt.Errorf("customer.email is required")
	}
	if strings.TrimSpace(r.Details.Location) == "" {
		return fmt.Errorf("details.location is required")
	}
	if strings.TrimSpace(r.Details.Vehicle) == "" {
		return fmt.Errorf("details.vehicle is required")
	}
	return nil
}
