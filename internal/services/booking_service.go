package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/models"
	"github.com/detailnco/booking-backend/internal/pricing"
	"github.com/detailnco/booking-backend/internal/utils"
	"github.com/detailnco/booking-backend/pkg/mail"
)

// BookingStore is the persistence surface the lifecycle controller drives.
// *database.BookingRepository satisfies it.
type BookingStore interface {
	CreateHold(b *models.Booking) (int64, error)
	GetByID(id int64) (*models.Booking, error)
	GetByApproveToken(token string) (*models.Booking, error)
	GetByRejectToken(token string) (*models.Booking, error)
	ListOccupying(date string, nowMs int64) ([]models.Booking, error)
	ApproveIfFree(id int64, payToken string, nowMs int64) (bool, error)
	MarkRejected(id int64, nowMs int64) (bool, error)
	MarkExpired(id int64, nowMs int64) (bool, error)
	SweepExpired(nowMs int64) (int64, error)
}

// CreateResult is returned to the customer after a hold is placed.
type CreateResult struct {
	BookingID int64   `json:"bookingId"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
	Warning   string  `json:"warning,omitempty"`
}

// BookingService owns the booking lifecycle: hold creation, operator
// approve/reject, and lazy expiry. All slot conflicts are resolved here
// and in the conditional SQL of the store, never with in-process locks.
type BookingService struct {
	store   BookingStore
	catalog *pricing.Catalog
	mailer  mail.Gateway
	cfg     config.BookingConfig
	baseURL string
	logger  *logrus.Logger

	// overridable in tests
	now      func() time.Time
	genToken func(bytes int) (string, error)
}

// NewBookingService creates a new booking lifecycle service
func NewBookingService(store BookingStore, catalog *pricing.Catalog, mailer mail.Gateway, cfg config.BookingConfig, baseURL string, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:    store,
		catalog:  catalog,
		mailer:   mailer,
		cfg:      cfg,
		baseURL:  baseURL,
		logger:   logger,
		now:      time.Now,
		genToken: utils.GenerateToken,
	}
}

// Create validates a submission, prices it server-side, sweeps lapsed holds
// and places a new pending hold if the requested window is free. The operator
// is emailed approve/reject links; a mail failure is reported as a warning
// and never unwinds the hold.
func (s *BookingService) Create(req *models.CreateBookingRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "request", Message: err.Error()}
	}
	if req.DurationMin < s.cfg.MinDurationMin || req.DurationMin > s.cfg.MaxDurationMin {
		return nil, validationErr("durationMin", "must be between %d and %d minutes", s.cfg.MinDurationMin, s.cfg.MaxDurationMin)
	}

	quote, err := s.catalog.Quote(req.Details.Package, req.Details.VehicleSize, req.Details.AddonKeys)
	if err != nil {
		return nil, validationErr("details", "%v", err)
	}

	hours, err := hoursForDate(s.cfg, req.Date)
	if err != nil {
		return nil, validationErr("date", "must be a valid YYYY-MM-DD date")
	}
	startMin, err := hhmmToMinutes(req.StartTime)
	if err != nil {
		return nil, validationErr("startTime", "must be HH:MM")
	}
	if startMin < hours.OpenMin || startMin+req.DurationMin > hours.CloseMin {
		return nil, validationErr("startTime", "outside working hours (%s)", hoursNote(hours))
	}
	if (startMin-hours.OpenMin)%s.cfg.SlotStepMin != 0 {
		return nil, validationErr("startTime", "must fall on the %d-minute slot grid", s.cfg.SlotStepMin)
	}

	startLocal, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.StartTime, time.Local)
	if err != nil {
		return nil, validationErr("date", "must be a valid calendar date")
	}
	startMs := startLocal.UnixMilli()
	endMs := startMs + int64(req.DurationMin)*60_000

	// Clients may echo epoch values; the server-derived ones are
	// authoritative and a mismatch means a stale or tampered form.
	if req.StartMs != 0 && req.StartMs != startMs {
		return nil, validationErr("startMs", "does not match date and startTime")
	}
	if req.EndMs != 0 && req.EndMs != endMs {
		return nil, validationErr("endMs", "does not match startMs and durationMin")
	}

	nowMs := s.now().UnixMilli()
	if startMs <= nowMs {
		return nil, validationErr("startTime", "is in the past")
	}

	if swept, err := s.store.SweepExpired(nowMs); err != nil {
		s.logger.WithError(err).Warn("Expired-hold sweep failed, continuing with create")
	} else if swept > 0 {
		s.logger.WithField("count", swept).Info("Swept expired holds")
	}

	approveToken, err := s.genToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate approve token: %w", err)
	}
	rejectToken, err := s.genToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reject token: %w", err)
	}

	expiresAt := nowMs + s.cfg.HoldDuration.Milliseconds()
	booking := &models.Booking{
		Date:          req.Date,
		StartTime:     req.StartTime,
		DurationMin:   req.DurationMin,
		StartMs:       startMs,
		EndMs:         endMs,
		Status:        models.StatusPending,
		ExpiresAtMs:   &expiresAt,
		ApproveToken:  &approveToken,
		RejectToken:   &rejectToken,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		Location:      req.Details.Location,
		Vehicle:       req.Details.Vehicle,
		VehicleSize:   req.Details.VehicleSize,
		Package:       req.Details.Package,
		Addons:        quote.AddonsLabel(),
		Notes:         req.Details.Notes,
		TotalCAD:      quote.TotalDollars(),
		Currency:      quote.Currency,
		CreatedAtMs:   nowMs,
	}

	if _, err := s.store.CreateHold(booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			return nil, database.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create booking hold: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"date":       booking.Date,
		"start_time": booking.StartTime,
		"total":      booking.TotalCAD,
	}).Info("Booking hold created")

	result := &CreateResult{
		BookingID: booking.ID,
		Status:    string(booking.Status),
		Total:     booking.TotalCAD,
		Currency:  booking.Currency,
	}
	if err := s.notifyOperator(booking, approveToken, rejectToken); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to email operator")
		result.Warning = "Booking saved but the notification email could not be sent."
	}
	return result, nil
}

// Approve handles the operator's approval link. The slot is re-checked
// against other approved bookings at transition time; a hold that lost the
// race is rejected and the customer is told the slot is gone.
func (s *BookingService) Approve(token string) (*models.Booking, error) {
	booking, err := s.store.GetByApproveToken(token)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return booking, &AlreadyHandledError{Status: booking.Status}
	}

	nowMs := s.now().UnixMilli()
	if booking.Lapsed(nowMs) {
		if _, err := s.store.MarkExpired(booking.ID, nowMs); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to mark lapsed hold expired")
		}
		return booking, ErrHoldExpired
	}

	payToken, err := s.genToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pay token: %w", err)
	}

	ok, err := s.store.ApproveIfFree(booking.ID, payToken, nowMs)
	if err != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", err)
	}

	fresh, err := s.store.GetByID(booking.ID)
	if err != nil {
		return nil, err
	}

	if !ok {
		if fresh.Status == models.StatusPending {
			// Lost an approve race against an overlapping hold.
			if _, err := s.store.MarkRejected(booking.ID, nowMs); err != nil {
				s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to reject losing hold")
			}
			fresh.Status = models.StatusRejected
			s.notifyCustomer(fresh, "Your booking could not be confirmed",
				"Unfortunately the requested time was taken by another confirmed booking. Please pick a different slot and book again.", nil)
			return fresh, database.ErrSlotTaken
		}
		return fresh, &AlreadyHandledError{Status: fresh.Status}
	}

	s.logger.WithField("booking_id", fresh.ID).Info("Booking approved")

	payURL := s.paymentPageURL(fresh.ID, payToken)
	s.notifyCustomer(fresh, "Your booking is confirmed",
		"Great news! Your appointment has been approved. You can pay securely using the button below.",
		&mail.CTA{Label: "Pay Now", URL: payURL})

	return fresh, nil
}

// PaymentPageURL is where payment for an approved booking is completed.
// Empty when the booking carries no pay token.
func (s *BookingService) PaymentPageURL(b *models.Booking) string {
	if b == nil || b.PayToken == nil || *b.PayToken == "" {
		return ""
	}
	return s.paymentPageURL(b.ID, *b.PayToken)
}

func (s *BookingService) paymentPageURL(id int64, token string) string {
	return fmt.Sprintf("%s/payments.html?bookingId=%d&token=%s", s.baseURL, id, token)
}

// Reject handles the operator's rejection link. Rejection is honored even
// when the hold has already lapsed so the customer still gets a definitive
// answer.
func (s *BookingService) Reject(token string) (*models.Booking, error) {
	booking, err := s.store.GetByRejectToken(token)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return booking, &AlreadyHandledError{Status: booking.Status}
	}

	nowMs := s.now().UnixMilli()
	changed, err := s.store.MarkRejected(booking.ID, nowMs)
	if err != nil {
		return nil, fmt.Errorf("failed to reject booking: %w", err)
	}
	if !changed {
		fresh, err := s.store.GetByID(booking.ID)
		if err != nil {
			return nil, err
		}
		return fresh, &AlreadyHandledError{Status: fresh.Status}
	}

	booking.Status = models.StatusRejected
	s.logger.WithField("booking_id", booking.ID).Info("Booking rejected")

	s.notifyCustomer(booking, "Your booking request was declined",
		"We're sorry, we can't take this appointment at the requested time. Feel free to book a different slot.", nil)

	return booking, nil
}

func (s *BookingService) notifyOperator(b *models.Booking, approveToken, rejectToken string) error {
	approveURL := fmt.Sprintf("%s/api/bookings/approve?token=%s", s.baseURL, approveToken)
	rejectURL := fmt.Sprintf("%s/api/bookings/reject?token=%s", s.baseURL, rejectToken)

	data := mail.EmailData{
		Title: "New booking request",
		Intro: fmt.Sprintf("%s requested an appointment. The hold expires in %d minutes.", b.CustomerName, int(s.cfg.HoldDuration.Minutes())),
		Lines: append(bookingLines(b),
			mail.Line{Label: "Email", Value: b.CustomerEmail},
			mail.Line{Label: "Phone", Value: b.CustomerPhone},
			mail.Line{Label: "Notes", Value: b.Notes},
		),
		Primary:   &mail.CTA{Label: "Approve", URL: approveURL},
		Secondary: &mail.CTA{Label: "Reject", URL: rejectURL},
	}

	html, err := mail.RenderHTML(data)
	if err != nil {
		return fmt.Errorf("failed to render operator email: %w", err)
	}
	return s.mailer.Send(mail.Message{
		To:      []string{s.cfg.BusinessEmail},
		Subject: fmt.Sprintf("Booking request: %s %s (%s)", b.Date, b.StartTime, b.CustomerName),
		Text:    mail.RenderText(data),
		HTML:    html,
	})
}

// notifyCustomer is fire-and-forget: a send failure is logged and swallowed
// because the state transition it reports has already been committed.
func (s *BookingService) notifyCustomer(b *models.Booking, title, intro string, cta *mail.CTA) {
	data := mail.EmailData{
		Title:   title,
		Intro:   intro,
		Lines:   bookingLines(b),
		Primary: cta,
	}
	html, err := mail.RenderHTML(data)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Warn("Failed to render customer email")
		return
	}
	if err := s.mailer.Send(mail.Message{
		To:      []string{b.CustomerEmail},
		Subject: title,
		Text:    mail.RenderText(data),
		HTML:    html,
	}); err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Warn("Failed to email customer")
	}
}

func bookingLines(b *models.Booking) []mail.Line {
	lines := []mail.Line{
		{Label: "Date", Value: b.Date},
		{Label: "Time", Value: b.StartTime},
		{Label: "Duration", Value: fmt.Sprintf("%d min", b.DurationMin)},
		{Label: "Vehicle", Value: fmt.Sprintf("%s (%s)", b.Vehicle, b.VehicleSize)},
		{Label: "Package", Value: b.Package},
		{Label: "Location", Value: b.Location},
		{Label: "Total", Value: fmt.Sprintf("$%.2f %s", b.TotalCAD, b.Currency)},
	}
	if b.Addons != "" {
		lines = append(lines, mail.Line{Label: "Add-ons", Value: b.Addons})
	}
	return lines
}
