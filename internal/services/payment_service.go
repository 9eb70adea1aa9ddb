package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/models"
	"github.com/detailnco/booking-backend/internal/utils"
	"github.com/detailnco/booking-backend/pkg/payments"
)

const minPayTokenLen = 20

// PaymentQuote is what the payment page loads before the customer picks a
// provider. The snake_case field names are the page's contract.
type PaymentQuote struct {
	Booking QuoteBooking `json:"booking"`
}

// QuoteBooking is the subset of a booking exposed to the payment page,
// with the payable amount pre-formatted for display.
type QuoteBooking struct {
	ID            int64                `json:"id"`
	Status        models.BookingStatus `json:"status"`
	Date          string               `json:"date"`
	StartTime     string               `json:"start_time"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	Vehicle       string               `json:"vehicle"`
	Location      string               `json:"location"`
	Package       string               `json:"package"`
	Addons        string               `json:"addons"`
	Notes         string               `json:"notes"`
	Total         float64              `json:"total"`
	Currency      string               `json:"currency"`
	AmountLabel   string               `json:"amount_label"`
}

// CheckoutResult carries the provider's hosted checkout URL.
type CheckoutResult struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

// PaymentService gates payment behind the pay capability token: only an
// approved booking whose stored token matches may be quoted or checked out.
// Amounts always come from the stored booking, never from the client.
type PaymentService struct {
	store     BookingStore
	providers map[string]payments.Provider
	cfg       config.PaymentConfig
	logger    *logrus.Logger
}

// NewPaymentService creates a new payment gate service
func NewPaymentService(store BookingStore, providers map[string]payments.Provider, cfg config.PaymentConfig, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		store:     store,
		providers: providers,
		cfg:       cfg,
		logger:    logger,
	}
}

// authorize loads the booking and checks status and pay token. Token
// comparison is constant-time; a short token is refused before comparing.
func (s *PaymentService) authorize(bookingID int64, token string) (*models.Booking, error) {
	if bookingID <= 0 {
		return nil, validationErr("bookingId", "must be a positive integer")
	}
	if len(token) < minPayTokenLen {
		return nil, ErrInvalidPayToken
	}

	booking, err := s.store.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusApproved {
		return nil, ErrNotApproved
	}
	if booking.PayToken == nil || !utils.TokensEqual(*booking.PayToken, token) {
		return nil, ErrInvalidPayToken
	}
	return booking, nil
}

// Quote returns the payable amount for an approved booking.
func (s *PaymentService) Quote(bookingID int64, token string) (*PaymentQuote, error) {
	booking, err := s.authorize(bookingID, token)
	if err != nil {
		return nil, err
	}
	if booking.TotalCAD <= 0 {
		return nil, ErrNoPayableAmount
	}

	return &PaymentQuote{Booking: QuoteBooking{
		ID:            booking.ID,
		Status:        booking.Status,
		Date:          booking.Date,
		StartTime:     booking.StartTime,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		Vehicle:       booking.Vehicle,
		Location:      booking.Location,
		Package:       booking.Package,
		Addons:        booking.Addons,
		Notes:         booking.Notes,
		Total:         booking.TotalCAD,
		Currency:      booking.Currency,
		AmountLabel:   fmt.Sprintf("$%.2f %s", booking.TotalCAD, booking.Currency),
	}}, nil
}

// Checkout creates a hosted checkout session with the requested provider and
// returns its redirect URL. An empty provider name selects stripe.
func (s *PaymentService) Checkout(bookingID int64, token, provider string) (*CheckoutResult, error) {
	booking, err := s.authorize(bookingID, token)
	if err != nil {
		return nil, err
	}
	if booking.TotalCAD <= 0 {
		return nil, ErrNoPayableAmount
	}

	if provider == "" {
		provider = "stripe"
	}
	client, ok := s.providers[provider]
	if !ok {
		return nil, validationErr("provider", "unsupported payment provider %q", provider)
	}

	amountCents := int64(math.Round(booking.TotalCAD * 100))
	params := payments.CheckoutParams{
		AmountCents: amountCents,
		Currency:    strings.ToLower(booking.Currency),
		Description: fmt.Sprintf("Booking #%d: %s (%s) on %s %s", booking.ID, booking.Package, booking.VehicleSize, booking.Date, booking.StartTime),
		SuccessURL:  paymentReturnURL(s.cfg.SuccessURL, booking.ID, token),
		CancelURL:   paymentReturnURL(s.cfg.CancelURL, booking.ID, token),
	}

	url, err := client.CreateSession(params)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"provider":   client.GetName(),
		}).Error("Checkout session creation failed")
		return nil, &DependencyError{Provider: client.GetName(), Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"provider":   client.GetName(),
		"amount":     booking.TotalCAD,
	}).Info("Checkout session created")

	return &CheckoutResult{Provider: client.GetName(), URL: url}, nil
}

// paymentReturnURL appends booking id and token so the payment page can
// restore its state when the provider redirects back.
func paymentReturnURL(base string, bookingID int64, token string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sbookingId=%d&token=%s", base, sep, bookingID, token)
}
